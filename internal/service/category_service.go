package service

import (
	"context"

	"pubhub/internal/cache"
	"pubhub/internal/models"
	"pubhub/internal/repository"
)

type CategoryService struct {
	repo     repository.CategoryRepository
	useCache bool
}

// NewCategoryService builds the catalog service. With useCache the listing
// is kept in Redis for cache.CategoryCatalogTTL.
func NewCategoryService(repo repository.CategoryRepository, useCache bool) *CategoryService {
	return &CategoryService{repo: repo, useCache: useCache}
}

// Catalog lists every category in display order with the number of approved
// publications tagged with it.
func (s *CategoryService) Catalog(ctx context.Context) ([]models.CategorySummary, error) {
	if !s.useCache {
		return s.load(ctx)
	}

	var out []models.CategorySummary
	err := cache.Aside(ctx, cache.CategoryCatalogKey, &out, cache.CategoryCatalogTTL, func() error {
		var err error
		out, err = s.load(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CategoryService) load(ctx context.Context) ([]models.CategorySummary, error) {
	counts, err := s.repo.ApprovedCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.CategorySummary, 0, len(models.CategoryCatalog))
	for _, name := range models.CategoryCatalog {
		out = append(out, models.CategorySummary{
			Name:         name,
			Label:        name.Label(),
			Publications: counts[name],
		})
	}
	return out, nil
}
