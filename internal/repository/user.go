package repository

import (
	"context"
	"fmt"
	"time"

	"pubhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository keeps the local mirror of identity-provider accounts.
type UserRepository interface {
	Sync(ctx context.Context, identity models.Identity) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	ListEditorIDs(ctx context.Context, exclude uint) ([]uint, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Sync upserts the caller's mirror row. Empty name and email claims leave
// the stored values alone.
func (r *userRepository) Sync(ctx context.Context, identity models.Identity) error {
	if identity.Anonymous() {
		return nil
	}
	user := models.User{
		ID:       identity.UserID,
		FullName: identity.FullName,
		Email:    identity.Email,
		Role:     identity.Role,
	}

	assignments := map[string]any{
		"role":       identity.Role,
		"updated_at": time.Now(),
	}
	if identity.FullName != "" {
		assignments["full_name"] = identity.FullName
	}
	if identity.Email != "" {
		assignments["email"] = identity.Email
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&user).Error
	if err != nil {
		return fmt.Errorf("failed to sync user %d: %w", identity.UserID, err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "User", id)
	}
	return &user, nil
}

// ListEditorIDs returns every editor except exclude, in ascending ID order.
func (r *userRepository) ListEditorIDs(ctx context.Context, exclude uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ? AND id <> ?", models.RoleEditor, exclude).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list editors: %w", err)
	}
	return ids, nil
}
