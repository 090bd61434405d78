package repository

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"pubhub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNotifications(t *testing.T, repo NotificationRepository, userID uint, n int) []*models.Notification {
	batch := make([]*models.Notification, n)
	base := time.Now().Add(-time.Hour)
	for i := range batch {
		batch[i] = &models.Notification{
			UserID:               userID,
			Message:              "status changed",
			RelatedPublicationID: 1,
			CreatedAt:            base.Add(time.Duration(i) * time.Minute),
		}
	}
	require.NoError(t, repo.CreateBatch(context.Background(), batch))
	return batch
}

func TestNotificationRepository_ListUnreadNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	batch := seedNotifications(t, repo, 1, 3)
	_ = seedNotifications(t, repo, 2, 2)
	_, err := repo.SetRead(ctx, 1, batch[1].ID, true)
	require.NoError(t, err)

	unread, err := repo.ListUnread(ctx, 1)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, batch[2].ID, unread[0].ID)
	assert.Equal(t, batch[0].ID, unread[1].ID)

	all, err := repo.ListByUser(ctx, 1, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestNotificationRepository_SetReadScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	batch := seedNotifications(t, repo, 1, 1)

	_, err := repo.SetRead(ctx, 2, batch[0].ID, true)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	n, err := repo.SetRead(ctx, 1, batch[0].ID, true)
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	n, err = repo.SetRead(ctx, 1, batch[0].ID, false)
	require.NoError(t, err)
	assert.False(t, n.IsRead)
}

func TestNotificationRepository_MarkAllRead(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	_ = seedNotifications(t, repo, 1, 3)
	_ = seedNotifications(t, repo, 2, 1)

	updated, err := repo.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)

	updated, err = repo.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, updated)

	others, err := repo.ListUnread(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestNotificationRepository_MarkAllReadIsSingleUpdate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "notifications" SET "is_read"=$1 WHERE user_id = $2 AND is_read = $3`)).
		WithArgs(true, 7, false).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	updated, err := repo.MarkAllRead(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(4), updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_CreateBatchRejectsInvalidMessage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	tests := []struct {
		name    string
		message string
	}{
		{"blank", "   "},
		{"too long", strings.Repeat("x", models.MaxNotificationMessageLen+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := []*models.Notification{
				{UserID: 1, Message: "valid", RelatedPublicationID: 1},
				{UserID: 1, Message: tt.message, RelatedPublicationID: 1},
			}
			err := repo.CreateBatch(ctx, batch)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, models.CodeValidation, appErr.Code)
		})
	}

	all, err := repo.ListByUser(ctx, 1, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}
