package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"pubhub/internal/models"
	"pubhub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2024, time.March, 5, 13, 4, 0, 0, time.UTC)

type testEnv struct {
	db        *gorm.DB
	pubs      repository.PublicationRepository
	views     repository.ViewRepository
	users     repository.UserRepository
	notifs    repository.NotificationRepository
	blobs     *memBlobStore
	publisher *recordingPublisher
	svc       *PublicationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Publication{},
		&models.ViewRecord{},
		&models.Notification{},
	))

	env := &testEnv{
		db:        db,
		pubs:      repository.NewPublicationRepository(db),
		views:     repository.NewViewRepository(db),
		users:     repository.NewUserRepository(db),
		notifs:    repository.NewNotificationRepository(db),
		blobs:     newMemBlobStore(),
		publisher: &recordingPublisher{},
	}
	env.svc = NewPublicationService(env.pubs, env.views, env.users, env.notifs, env.blobs, env.publisher)
	env.svc.now = func() time.Time { return fixedNow }
	return env
}

func (e *testEnv) user(t *testing.T, id uint, role models.Role, name string) models.Identity {
	t.Helper()
	identity := models.Identity{UserID: id, Role: role, FullName: name}
	require.NoError(t, e.users.Sync(context.Background(), identity))
	return identity
}

// publication stores a publication directly, bypassing validation.
func (e *testEnv) publication(t *testing.T, author models.Identity, status models.PublicationStatus, title string) *models.Publication {
	t.Helper()
	p := &models.Publication{
		Title:           title,
		Abstract:        strings.Repeat("a", minAbstractLen),
		Content:         strings.Repeat("c", minContentLen),
		AuthorID:        author.UserID,
		Status:          status,
		PublicationDate: fixedNow,
	}
	require.NoError(t, e.pubs.Create(context.Background(), p, nil))
	return p
}

func validInput() PublicationInput {
	return PublicationInput{
		Title:    ptr("A Valid Title Here"),
		Abstract: ptr(strings.Repeat("a", 250)),
		Content:  ptr(strings.Repeat("c", 600)),
	}
}

func ptr[T any](v T) *T {
	return &v
}

func attachment(name string, size int64) *Attachment {
	return &Attachment{
		Filename: name,
		Size:     size,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("payload")), nil
		},
	}
}

// memBlobStore is an in-memory storage.BlobStore.
type memBlobStore struct {
	mu    sync.Mutex
	seq   int
	blobs map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: map[string][]byte{}}
}

func (m *memBlobStore) Put(_ context.Context, kind, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ref := fmt.Sprintf("%s/%d-%s", kind, m.seq, filename)
	m.blobs[ref] = buf.Bytes()
	return ref, nil
}

func (m *memBlobStore) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, ref)
	return nil
}

func (m *memBlobStore) URL(ref string) string {
	return "/media/" + ref
}

func (m *memBlobStore) has(ref string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[ref]
	return ok
}

// recordingPublisher collects published notifications.
type recordingPublisher struct {
	mu        sync.Mutex
	published []*models.Notification
	err       error
}

func (p *recordingPublisher) PublishNotification(_ context.Context, n *models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, n)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func assertCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) *models.AppError {
	t.Helper()
	return assertCode(t, err, models.CodeValidation)
}
