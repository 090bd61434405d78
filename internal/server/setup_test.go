package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pubhub/internal/config"
	"pubhub/internal/database"
	"pubhub/internal/models"
	"pubhub/internal/repository"
	"pubhub/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

type testServer struct {
	server  *Server
	app     *fiber.App
	db      *gorm.DB
	users   repository.UserRepository
	pubs    repository.PublicationRepository
	mediaFS string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Env:          "test",
		Port:         "0",
		JWTSecret:    testSecret,
		MediaBaseURL: "/media",
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := newTestDB(t)
	mediaFS := t.TempDir()
	blobs, err := storage.NewLocalStore(mediaFS, "/media")
	require.NoError(t, err)

	srv := NewServerWithDeps(newTestConfig(), db, nil, blobs, nil)
	return &testServer{
		server:  srv,
		app:     srv.App(),
		db:      db,
		users:   repository.NewUserRepository(db),
		pubs:    repository.NewPublicationRepository(db),
		mediaFS: mediaFS,
	}
}

// user mirrors an identity and returns a bearer token for it.
func (ts *testServer) user(t *testing.T, id uint, role models.Role, name string) string {
	t.Helper()
	require.NoError(t, ts.users.Sync(context.Background(), models.Identity{UserID: id, Role: role, FullName: name}))
	return signToken(t, id, role, name)
}

// publication stores a publication directly, bypassing validation.
func (ts *testServer) publication(t *testing.T, authorID uint, status models.PublicationStatus, title string) *models.Publication {
	t.Helper()
	p := &models.Publication{
		Title:           title,
		Abstract:        strings.Repeat("a", 200),
		Content:         strings.Repeat("c", 500),
		AuthorID:        authorID,
		Status:          status,
		PublicationDate: time.Now().UTC(),
	}
	require.NoError(t, ts.pubs.Create(context.Background(), p, []models.CategoryName{models.CategoryScience}))
	return p
}

func signToken(t *testing.T, id uint, role models.Role, name string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", id),
		"role": string(role),
		"name": name,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// do sends a request with an optional JSON body and bearer token.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func validPublicationBody() map[string]any {
	return map[string]any{
		"title":      "Measuring Coastal Erosion",
		"abstract":   strings.Repeat("a", 250),
		"content":    strings.Repeat("c", 600),
		"keywords":   "coast, erosion ,,sand",
		"categories": []string{"science", "environment"},
	}
}
