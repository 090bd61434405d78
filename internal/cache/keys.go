package cache

import (
	"context"
	"time"
)

const (
	// CategoryCatalogKey holds the category listing with approved counts.
	CategoryCatalogKey = "categories:catalog"
)

const (
	CategoryCatalogTTL = 2 * time.Minute
)

// Invalidate deletes key. Failures are ignored; entries expire anyway.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateCategoryCatalog drops the cached category listing.
func InvalidateCategoryCatalog(ctx context.Context) {
	Invalidate(ctx, CategoryCatalogKey)
}
