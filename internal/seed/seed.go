package seed

import (
	"context"
	"fmt"
	"log/slog"

	"pubhub/internal/middleware"
	"pubhub/internal/models"
	"pubhub/internal/repository"
	"pubhub/internal/service"

	"gorm.io/gorm"
)

// Options controls how much demo data Run creates.
type Options struct {
	Authors      int
	Editors      int
	Publications int
	// Clean empties every table first.
	Clean bool
	// Seed makes the generated data reproducible when non-zero.
	Seed int64
}

// DefaultOptions is a small but complete dataset.
var DefaultOptions = Options{Authors: 8, Editors: 2, Publications: 30}

// Summary counts what Run created.
type Summary struct {
	Users        int
	Publications int
	Decisions    int
	Views        int
	Reactions    int
}

// Run submits publications through the same services the API uses, so
// every row it writes respects the lifecycle rules.
func Run(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	if opts.Authors <= 0 || opts.Editors <= 0 {
		return nil, fmt.Errorf("seed needs at least one author and one editor")
	}
	if opts.Clean {
		if err := Clean(ctx, db); err != nil {
			return nil, err
		}
	}

	users := repository.NewUserRepository(db)
	pubs := repository.NewPublicationRepository(db)
	views := repository.NewViewRepository(db)
	publications := service.NewPublicationService(pubs, views, users, repository.NewNotificationRepository(db), nil, nil)
	reactions := service.NewReactionService(pubs, views)

	f := NewFactory(opts.Seed)
	summary := &Summary{}

	authors := make([]models.Identity, opts.Authors)
	editors := make([]models.Identity, opts.Editors)
	for i := range authors {
		authors[i] = f.Identity(models.RoleAuthor)
	}
	for i := range editors {
		editors[i] = f.Identity(models.RoleEditor)
	}
	everyone := append(append([]models.Identity{}, authors...), editors...)
	for _, identity := range everyone {
		if err := users.Sync(ctx, identity); err != nil {
			return nil, fmt.Errorf("seed user %d: %w", identity.UserID, err)
		}
		summary.Users++
	}

	for i := 0; i < opts.Publications; i++ {
		author := authors[i%len(authors)]
		p, err := publications.Create(ctx, author, f.Submission())
		if err != nil {
			return nil, fmt.Errorf("seed publication %d: %w", i, err)
		}
		summary.Publications++

		status := f.Status()
		if status != models.StatusPending {
			editor := editors[i%len(editors)]
			in := service.StatusChangeInput{Status: string(status)}
			if status == models.StatusRejected {
				note := f.RejectionNote()
				in.RejectionNote = &note
			}
			if _, err := publications.ChangeStatus(ctx, editor, p.ID, in); err != nil {
				return nil, fmt.Errorf("seed decision on publication %d: %w", p.ID, err)
			}
			summary.Decisions++
		}
		if status != models.StatusApproved {
			continue
		}

		for _, reader := range everyone {
			if reader.UserID == author.UserID || !f.Chance(60) {
				continue
			}
			if _, err := publications.Get(ctx, reader, p.ID); err != nil {
				return nil, fmt.Errorf("seed view of publication %d: %w", p.ID, err)
			}
			summary.Views++
			if !f.Chance(50) {
				continue
			}
			if _, err := reactions.React(ctx, reader, p.ID, string(f.Reaction())); err != nil {
				return nil, fmt.Errorf("seed reaction on publication %d: %w", p.ID, err)
			}
			summary.Reactions++
		}
	}

	middleware.Logger.InfoContext(ctx, "seed completed",
		slog.Int("users", summary.Users),
		slog.Int("publications", summary.Publications),
		slog.Int("decisions", summary.Decisions),
		slog.Int("views", summary.Views),
		slog.Int("reactions", summary.Reactions),
	)
	return summary, nil
}

// Clean deletes all rows, children first.
func Clean(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{
			"notifications",
			"publication_views",
			"publication_categories",
			"publications",
			"categories",
			"users",
		} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clean %s: %w", table, err)
			}
		}
		return nil
	})
}
