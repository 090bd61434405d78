package repository

import (
	"context"
	"testing"

	"pubhub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Each new connection to :memory: opens an empty database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Publication{},
		&models.ViewRecord{},
		&models.Notification{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id uint, role models.Role) {
	require.NoError(t, NewUserRepository(db).Sync(context.Background(), models.Identity{
		UserID:   id,
		Role:     role,
		FullName: "User " + string(rune('A'+id%26)),
	}))
}

func seedPublication(t *testing.T, db *gorm.DB, authorID uint, status models.PublicationStatus, title string) *models.Publication {
	p := &models.Publication{
		Title:    title,
		Abstract: "abstract",
		Content:  "content",
		AuthorID: authorID,
		Status:   status,
	}
	require.NoError(t, NewPublicationRepository(db).Create(context.Background(), p, nil))
	return p
}
