package repository

import (
	"context"
	"fmt"

	"pubhub/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository defines data operations for the notification outbox.
type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []*models.Notification) error
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, error)
	ListUnread(ctx context.Context, userID uint) ([]*models.Notification, error)
	SetRead(ctx context.Context, userID, id uint, isRead bool) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	for _, n := range notifications {
		if err := models.ValidateNotificationMessage(n.Message); err != nil {
			return err
		}
	}
	if err := r.db.WithContext(ctx).Create(notifications).Error; err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var out []*models.Notification
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications of user %d: %w", userID, err)
	}
	return out, nil
}

func (r *notificationRepository) ListUnread(ctx context.Context, userID uint) ([]*models.Notification, error) {
	var out []*models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unread notifications of user %d: %w", userID, err)
	}
	return out, nil
}

// SetRead updates is_read on a notification owned by userID. A notification
// belonging to someone else is reported as not found.
func (r *notificationRepository) SetRead(ctx context.Context, userID, id uint, isRead bool) (*models.Notification, error) {
	var n models.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
			return notFoundOr(err, "Notification", id)
		}
		if n.IsRead == isRead {
			return nil
		}
		if err := tx.Model(&n).Update("is_read", isRead).Error; err != nil {
			return fmt.Errorf("failed to update notification %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications of user %d as read: %w", userID, res.Error)
	}
	return res.RowsAffected, nil
}
