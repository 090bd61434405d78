package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"pubhub/internal/config"
	"pubhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestPersistentModels_IncludesLedger(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*models.ViewRecord); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include ViewRecord")
}

func TestConnect_SQLite(t *testing.T) {
	cfg := &config.Config{
		Env:        "test",
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}

	db, err := Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	assert.Same(t, db, DB)
	for _, model := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(model))
	}
	assert.True(t, db.Migrator().HasIndex(&models.ViewRecord{}, "idx_publication_user"))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DB_DRIVER")
}

func TestCustomGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, nil)), logger.Warn)
	fc := func() (string, int64) { return "SELECT 1", 1 }
	ctx := context.Background()

	l.Trace(ctx, time.Now(), fc, nil)
	assert.Empty(t, buf.String())

	l.Trace(ctx, time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(ctx, time.Now(), fc, errors.New("boom"))
	assert.Contains(t, buf.String(), "GORM query error")

	buf.Reset()
	l.Trace(ctx, time.Now().Add(-time.Second), fc, nil)
	assert.Contains(t, buf.String(), "GORM slow query")

	buf.Reset()
	l.LogMode(logger.Silent).Trace(ctx, time.Now(), fc, errors.New("boom"))
	assert.Empty(t, buf.String())
}
