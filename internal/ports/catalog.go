package ports

import (
	"context"

	"catalogsync/internal/domain"
)

// RecordFilter narrows ListRecords. The zero value lists every record.
type RecordFilter struct {
	Category      string   // case-insensitive exact category
	IDs           []string // restrict to these identifiers
	OnlyWithAsset bool     // skip records without an asset reference
}

// CatalogStore is the external catalog the engine reads and corrects.
// The engine never creates or deletes records; it only rewrites asset refs.
type CatalogStore interface {
	// ListRecords returns the records matching filter in no particular order
	ListRecords(ctx context.Context, filter RecordFilter) ([]domain.CatalogRecord, error)

	// UpdateRecordAsset sets a record's asset reference and returns the
	// updated record. A missing record yields an error wrapping ErrNotFound.
	UpdateRecordAsset(ctx context.Context, id, assetRef string) (*domain.CatalogRecord, error)
}

// CatalogImporter is implemented by stores that can be seeded in bulk
type CatalogImporter interface {
	// UpsertRecords inserts records or replaces existing ones by id
	UpsertRecords(ctx context.Context, records []domain.CatalogRecord) (int, error)
}
