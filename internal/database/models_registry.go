package database

import (
	"context"
	"fmt"

	"pubhub/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Publication{},
		&models.ViewRecord{},
		&models.Notification{},
	}
}

// postgresIndexes are created after AutoMigrate on PostgreSQL only.
var postgresIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_notifications_unread
		ON notifications (user_id, created_at DESC) WHERE is_read = false`,
	`CREATE INDEX IF NOT EXISTS idx_publications_status_created
		ON publications (status, created_at DESC)`,
}

// Migrate brings the schema up to date with PersistentModels.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, stmt := range postgresIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
