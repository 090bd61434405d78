package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"pubhub/internal/config"
	"pubhub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRealtimeServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewServerWithDeps(cfg, newTestDB(t), rdb, nil, nil)
}

func wsRequest(t *testing.T, token string) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodGet, "/api/ws/notifications?token="+token, nil)
}

func TestNotificationsWebSocket_RequiresToken(t *testing.T) {
	srv := newRealtimeServer(t, newTestConfig())

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/ws/notifications", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNotificationsWebSocket_RequiresUpgrade(t *testing.T) {
	srv := newRealtimeServer(t, newTestConfig())
	token := signToken(t, 1, models.RoleAuthor, "Ada Author")

	resp, err := srv.App().Test(wsRequest(t, token), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestNotificationsWebSocket_UnavailableWithoutRedis(t *testing.T) {
	ts := newTestServer(t)
	token := ts.user(t, 1, models.RoleAuthor, "Ada Author")

	resp, err := ts.app.Test(wsRequest(t, token), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestNotificationsWebSocket_DisabledByFlag(t *testing.T) {
	cfg := newTestConfig()
	cfg.FeatureFlags = "realtime_notifications=off"
	srv := newRealtimeServer(t, cfg)
	token := signToken(t, 1, models.RoleAuthor, "Ada Author")

	resp, err := srv.App().Test(wsRequest(t, token), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestGetFeatureFlags(t *testing.T) {
	cfg := newTestConfig()
	cfg.FeatureFlags = "realtime_notifications=on,category_catalog_cache=off"
	srv := NewServerWithDeps(cfg, newTestDB(t), nil, nil, nil)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/feature-flags", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]map[string]bool](t, resp)
	assert.Equal(t, map[string]bool{
		"realtime_notifications": true,
		"category_catalog_cache": false,
	}, body["evaluated"])
}
