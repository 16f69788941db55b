package ports

import (
	"context"

	"catalogsync/internal/domain"
)

// AssetStore enumerates the physical image pool
type AssetStore interface {
	// ListAssets enumerates files under each category. An empty list means
	// every category. Absent or unreadable categories yield no assets
	// rather than an error.
	ListAssets(ctx context.Context, categories []string) ([]domain.AssetDescriptor, error)

	// Categories lists the category names present in the pool
	Categories(ctx context.Context) ([]string, error)
}
