package repository

import (
	"context"
	"fmt"

	"pubhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ViewRepository is the reaction ledger: one row per (publication, user).
type ViewRepository interface {
	// RecordView creates the ledger row and bumps the publication's view
	// counter if the row did not exist. It reports whether it counted.
	RecordView(ctx context.Context, publicationID, userID uint) (bool, error)
	// InsertOrFetch returns the ledger row, creating it with both flags
	// false when absent. Concurrent callers observe a single row.
	InsertOrFetch(ctx context.Context, publicationID, userID uint) (*models.ViewRecord, bool, error)
	// SetReaction sets the requested flag and clears the opposite one. It
	// reports false when the flag was already set.
	SetReaction(ctx context.Context, publicationID, userID uint, action models.ReactionAction) (bool, error)
	Find(ctx context.Context, publicationID, userID uint) (*models.ViewRecord, error)
	Totals(ctx context.Context, publicationID uint) (models.ReactionTotals, error)
	TotalsFor(ctx context.Context, publicationIDs []uint) (map[uint]models.ReactionTotals, error)
	FindForUser(ctx context.Context, userID uint, publicationIDs []uint) (map[uint]models.ViewRecord, error)
}

type viewRepository struct {
	db *gorm.DB
}

// NewViewRepository creates a new ledger repository
func NewViewRepository(db *gorm.DB) ViewRepository {
	return &viewRepository{db: db}
}

func insertLedgerRow(tx *gorm.DB, publicationID, userID uint) (*models.ViewRecord, bool, error) {
	record := models.ViewRecord{PublicationID: publicationID, UserID: userID}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "publication_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&record)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to insert ledger row: %w", res.Error)
	}
	return &record, res.RowsAffected == 1, nil
}

func (r *viewRepository) RecordView(ctx context.Context, publicationID, userID uint) (bool, error) {
	counted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, created, err := insertLedgerRow(tx, publicationID, userID)
		if err != nil || !created {
			return err
		}
		res := tx.Model(&models.Publication{}).
			Where("id = ?", publicationID).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to increment views of publication %d: %w", publicationID, res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Publication", publicationID)
		}
		counted = true
		return nil
	})
	return counted, err
}

func (r *viewRepository) InsertOrFetch(ctx context.Context, publicationID, userID uint) (*models.ViewRecord, bool, error) {
	db := r.db.WithContext(ctx)
	record, created, err := insertLedgerRow(db, publicationID, userID)
	if err != nil {
		return nil, false, err
	}
	if created {
		return record, true, nil
	}

	existing, err := r.Find(ctx, publicationID, userID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func reactionColumns(action models.ReactionAction) (set, unset string) {
	if action == models.ReactionDislike {
		return "user_disliked", "user_liked"
	}
	return "user_liked", "user_disliked"
}

func (r *viewRepository) SetReaction(ctx context.Context, publicationID, userID uint, action models.ReactionAction) (bool, error) {
	set, unset := reactionColumns(action)
	res := r.db.WithContext(ctx).
		Model(&models.ViewRecord{}).
		Where("publication_id = ? AND user_id = ? AND "+set+" = ?", publicationID, userID, false).
		Updates(map[string]any{set: true, unset: false})
	if res.Error != nil {
		return false, fmt.Errorf("failed to set %s on publication %d: %w", action, publicationID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *viewRepository) Find(ctx context.Context, publicationID, userID uint) (*models.ViewRecord, error) {
	var record models.ViewRecord
	err := r.db.WithContext(ctx).
		Where("publication_id = ? AND user_id = ?", publicationID, userID).
		First(&record).Error
	if err != nil {
		return nil, notFoundOr(err, "View", fmt.Sprintf("%d/%d", publicationID, userID))
	}
	return &record, nil
}

const totalsSelect = "COALESCE(SUM(CASE WHEN user_liked THEN 1 ELSE 0 END), 0) AS likes, " +
	"COALESCE(SUM(CASE WHEN user_disliked THEN 1 ELSE 0 END), 0) AS dislikes"

func (r *viewRepository) Totals(ctx context.Context, publicationID uint) (models.ReactionTotals, error) {
	totals := models.ReactionTotals{PublicationID: publicationID}
	err := r.db.WithContext(ctx).
		Model(&models.ViewRecord{}).
		Select(totalsSelect).
		Where("publication_id = ?", publicationID).
		Scan(&totals).Error
	if err != nil {
		return totals, fmt.Errorf("failed to aggregate reactions of publication %d: %w", publicationID, err)
	}
	totals.PublicationID = publicationID
	return totals, nil
}

func (r *viewRepository) TotalsFor(ctx context.Context, publicationIDs []uint) (map[uint]models.ReactionTotals, error) {
	out := make(map[uint]models.ReactionTotals, len(publicationIDs))
	if len(publicationIDs) == 0 {
		return out, nil
	}

	var rows []models.ReactionTotals
	err := r.db.WithContext(ctx).
		Model(&models.ViewRecord{}).
		Select("publication_id, "+totalsSelect).
		Where("publication_id IN ?", publicationIDs).
		Group("publication_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reactions: %w", err)
	}
	for _, row := range rows {
		out[row.PublicationID] = row
	}
	return out, nil
}

func (r *viewRepository) FindForUser(ctx context.Context, userID uint, publicationIDs []uint) (map[uint]models.ViewRecord, error) {
	out := make(map[uint]models.ViewRecord, len(publicationIDs))
	if userID == 0 || len(publicationIDs) == 0 {
		return out, nil
	}

	var records []models.ViewRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND publication_id IN ?", userID, publicationIDs).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger rows of user %d: %w", userID, err)
	}
	for _, rec := range records {
		out[rec.PublicationID] = rec
	}
	return out, nil
}
