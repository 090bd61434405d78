package repository

import (
	"context"
	"errors"
	"fmt"

	"pubhub/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines data operations for the category catalog.
type CategoryRepository interface {
	GetOrCreate(ctx context.Context, names []models.CategoryName) ([]models.Category, error)
	ApprovedCounts(ctx context.Context) (map[models.CategoryName]int64, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetOrCreate(ctx context.Context, names []models.CategoryName) ([]models.Category, error) {
	var out []models.Category
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = getOrCreateCategories(tx, names)
		return err
	})
	return out, err
}

// getOrCreateCategories resolves names to rows inside tx. A concurrent insert
// of the same name is absorbed by retrying the lookup after rolling back to
// a savepoint.
func getOrCreateCategories(tx *gorm.DB, names []models.CategoryName) ([]models.Category, error) {
	out := make([]models.Category, 0, len(names))
	seen := make(map[models.CategoryName]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		var category models.Category
		err := tx.Where("name = ?", name).First(&category).Error
		if err == nil {
			out = append(out, category)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load category %s: %w", name, err)
		}

		category = models.Category{Name: name}
		err = tx.Transaction(func(sp *gorm.DB) error {
			return sp.Create(&category).Error
		})
		if isUniqueViolation(err) {
			err = tx.Where("name = ?", name).First(&category).Error
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create category %s: %w", name, err)
		}
		out = append(out, category)
	}
	return out, nil
}

func (r *categoryRepository) ApprovedCounts(ctx context.Context) (map[models.CategoryName]int64, error) {
	var rows []struct {
		Name  models.CategoryName
		Total int64
	}
	err := r.db.WithContext(ctx).
		Table("categories").
		Select("categories.name AS name, COUNT(publications.id) AS total").
		Joins("JOIN publication_categories ON publication_categories.category_id = categories.id").
		Joins("JOIN publications ON publications.id = publication_categories.publication_id").
		Where("publications.status = ?", models.StatusApproved).
		Group("categories.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count approved publications per category: %w", err)
	}

	counts := make(map[models.CategoryName]int64, len(rows))
	for _, row := range rows {
		counts[row.Name] = row.Total
	}
	return counts, nil
}
