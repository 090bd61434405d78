package service

import (
	"context"

	"pubhub/internal/models"
	"pubhub/internal/repository"
)

const (
	msgNothingToMark = "No unread notifications to mark as read."
	msgAllMarked     = "All notifications marked as read."
)

// NotificationService exposes a user's notification outbox.
type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// MarkAllResult reports how many notifications MarkAllRead flipped.
type MarkAllResult struct {
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}

func (s *NotificationService) List(ctx context.Context, caller models.Identity, limit, offset int) ([]*models.Notification, error) {
	if caller.Anonymous() {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	return s.repo.ListByUser(ctx, caller.UserID, limit, offset)
}

// ListUnread returns unread notifications newest first. Anonymous callers
// get an empty list.
func (s *NotificationService) ListUnread(ctx context.Context, caller models.Identity) ([]*models.Notification, error) {
	if caller.Anonymous() {
		return []*models.Notification{}, nil
	}
	return s.repo.ListUnread(ctx, caller.UserID)
}

// MarkRead sets the read flag of one of the caller's notifications.
func (s *NotificationService) MarkRead(ctx context.Context, caller models.Identity, id uint, isRead bool) (*models.Notification, error) {
	if caller.Anonymous() {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	n, err := s.repo.SetRead(ctx, caller.UserID, id, isRead)
	if err != nil {
		return nil, err
	}
	n.IsRead = isRead
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, caller models.Identity) (*MarkAllResult, error) {
	if caller.Anonymous() {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	updated, err := s.repo.MarkAllRead(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if updated == 0 {
		return &MarkAllResult{Message: msgNothingToMark}, nil
	}
	return &MarkAllResult{Message: msgAllMarked, Updated: updated}, nil
}
