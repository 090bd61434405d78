package repository

import (
	"context"
	"fmt"
	"strings"

	"pubhub/internal/models"

	"gorm.io/gorm"
)

// ListFilter narrows a publication listing.
type ListFilter struct {
	// Keywords are OR-ed; each matches title, abstract or keywords case-insensitively.
	Keywords []string
	// ViewerID sees their own publications in any status.
	ViewerID uint
	// AllStatuses disables the approved-or-own restriction.
	AllStatuses bool
	Limit       int
	Offset      int
}

// StatusChange is the set of columns an editorial decision writes.
type StatusChange struct {
	Status        models.PublicationStatus
	EditorID      uint
	RejectionNote *string
}

// PublicationRepository defines the interface for publication data operations
type PublicationRepository interface {
	Create(ctx context.Context, p *models.Publication, categories []models.CategoryName) error
	GetByID(ctx context.Context, id uint) (*models.Publication, error)
	List(ctx context.Context, filter ListFilter) ([]*models.Publication, error)
	UpdateContent(ctx context.Context, id uint, fields map[string]any, categories []models.CategoryName) error
	UpdateStatus(ctx context.Context, id uint, change StatusChange) error
	Delete(ctx context.Context, id uint) error
}

type publicationRepository struct {
	db *gorm.DB
}

// NewPublicationRepository creates a new publication repository
func NewPublicationRepository(db *gorm.DB) PublicationRepository {
	return &publicationRepository{db: db}
}

func (r *publicationRepository) Create(ctx context.Context, p *models.Publication, categories []models.CategoryName) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cats, err := getOrCreateCategories(tx, categories)
		if err != nil {
			return err
		}
		p.Categories = cats
		if err := tx.Omit("Categories.*").Create(p).Error; err != nil {
			return fmt.Errorf("failed to create publication: %w", err)
		}
		return nil
	})
}

func (r *publicationRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Editor").
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("categories.name")
		})
}

func (r *publicationRepository) GetByID(ctx context.Context, id uint) (*models.Publication, error) {
	var p models.Publication
	if err := r.withDetails(r.db.WithContext(ctx)).First(&p, id).Error; err != nil {
		return nil, notFoundOr(err, "Publication", id)
	}
	return &p, nil
}

// likePattern builds a case-insensitive substring pattern with LIKE
// metacharacters escaped.
func likePattern(token string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(token)) + "%"
}

func (r *publicationRepository) List(ctx context.Context, filter ListFilter) ([]*models.Publication, error) {
	q := r.withDetails(r.db.WithContext(ctx)).Model(&models.Publication{})

	if !filter.AllStatuses {
		q = q.Where("(publications.status = ? OR publications.author_id = ?)", models.StatusApproved, filter.ViewerID)
	}

	if len(filter.Keywords) > 0 {
		parts := make([]string, 0, len(filter.Keywords))
		args := make([]any, 0, len(filter.Keywords)*3)
		for _, token := range filter.Keywords {
			pattern := likePattern(token)
			parts = append(parts,
				`LOWER(publications.title) LIKE ? ESCAPE '\' OR `+
					`LOWER(publications.abstract) LIKE ? ESCAPE '\' OR `+
					`LOWER(publications.keywords) LIKE ? ESCAPE '\'`)
			args = append(args, pattern, pattern, pattern)
		}
		q = q.Where("("+strings.Join(parts, " OR ")+")", args...)
	}

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var out []*models.Publication
	if err := q.Order("publications.created_at DESC").Order("publications.id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list publications: %w", err)
	}
	return out, nil
}

// UpdateContent applies fields and, when categories is non-nil, replaces the
// category set. Both happen in one transaction.
func (r *publicationRepository) UpdateContent(ctx context.Context, id uint, fields map[string]any, categories []models.CategoryName) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Publication
		if err := tx.Select("id").First(&p, id).Error; err != nil {
			return notFoundOr(err, "Publication", id)
		}

		if len(fields) > 0 {
			if err := tx.Model(&p).Updates(fields).Error; err != nil {
				return fmt.Errorf("failed to update publication %d: %w", id, err)
			}
		}

		if categories != nil {
			cats, err := getOrCreateCategories(tx, categories)
			if err != nil {
				return err
			}
			if err := tx.Model(&p).Association("Categories").Replace(cats); err != nil {
				return fmt.Errorf("failed to replace categories of publication %d: %w", id, err)
			}
		}
		return nil
	})
}

func (r *publicationRepository) UpdateStatus(ctx context.Context, id uint, change StatusChange) error {
	res := r.db.WithContext(ctx).
		Model(&models.Publication{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":         change.Status,
			"editor_id":      change.EditorID,
			"rejection_note": change.RejectionNote,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update status of publication %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Publication", id)
	}
	return nil
}

// Delete removes the publication together with its ledger rows,
// notifications and category links.
func (r *publicationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("publication_id = ?", id).Delete(&models.ViewRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete views of publication %d: %w", id, err)
		}
		if err := tx.Where("related_publication_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return fmt.Errorf("failed to delete notifications of publication %d: %w", id, err)
		}
		if err := tx.Exec("DELETE FROM publication_categories WHERE publication_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to unlink categories of publication %d: %w", id, err)
		}
		res := tx.Delete(&models.Publication{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete publication %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Publication", id)
		}
		return nil
	})
}
