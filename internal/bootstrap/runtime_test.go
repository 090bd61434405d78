package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"pubhub/internal/config"
	"pubhub/internal/featureflags"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRuntime_SQLiteWithoutRedis(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Env:            "test",
		DBDriver:       "sqlite",
		SQLitePath:     filepath.Join(dir, "pubhub.db"),
		StorageDir:     filepath.Join(dir, "media"),
		MediaBaseURL:   "/media",
		FeatureFlags:   "realtime_notifications=on",
		TracingSampler: 1,
	}

	rt, err := InitRuntime(cfg, Options{SkipRedis: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })

	assert.NotNil(t, rt.DB)
	assert.Nil(t, rt.Redis)
	assert.Equal(t, filepath.Join(dir, "media"), rt.Blobs.Root())
	assert.True(t, rt.Flags.Enabled(featureflags.RealtimeNotifications, 1))
	assert.DirExists(t, filepath.Join(dir, "media"))
}
