package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupMockDB creates a GORM *gorm.DB backed by sqlmock with ping monitoring.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return gormDB, mock
}

func TestLivenessCheck(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", decode[map[string]any](t, resp)["status"])
}

func TestReadinessCheck_WithoutRedis(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unavailable", checks["redis"])
}

func TestReadinessCheck_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	srv := NewServerWithDeps(newTestConfig(), newTestDB(t), rdb, nil, nil)
	app := srv.App()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "unhealthy", body["checks"].(map[string]any)["redis"])
}

func TestReadinessCheck_DatabaseDown(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	srv := NewServerWithDeps(newTestConfig(), db, nil, nil, nil)
	app := srv.App()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unhealthy", decode[map[string]any](t, resp)["checks"].(map[string]any)["database"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodGet, "/health/live", "", nil)
	resp := ts.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
