package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

// ReadCatalogCommand lists catalog records and validates them once, at the
// boundary, so later stages can trust their shape
type ReadCatalogCommand struct {
	store  ports.CatalogStore
	logger *zap.Logger
	Filter ports.RecordFilter
}

// NewReadCatalogCommand creates a new ReadCatalogCommand
func NewReadCatalogCommand(store ports.CatalogStore, filter ports.RecordFilter, logger *zap.Logger) *ReadCatalogCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadCatalogCommand{
		store:  store,
		logger: logger,
		Filter: filter,
	}
}

// Execute returns the cleaned records sorted by id. A store failure is
// fatal and yields no records.
func (c *ReadCatalogCommand) Execute(ctx context.Context) ([]domain.CatalogRecord, error) {
	raw, err := c.store.ListRecords(ctx, c.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", asUnavailable("catalog", err))
	}

	seen := make(map[string]bool, len(raw))
	records := make([]domain.CatalogRecord, 0, len(raw))
	for _, r := range raw {
		r.ID = strings.TrimSpace(r.ID)
		if r.ID == "" {
			c.logger.Warn("dropping catalog record without id", zap.String("name", r.Name))
			continue
		}
		if seen[r.ID] {
			c.logger.Warn("dropping duplicate catalog record", zap.String("id", r.ID))
			continue
		}
		seen[r.ID] = true
		r.Name = strings.TrimSpace(r.Name)
		r.Category = strings.TrimSpace(r.Category)
		r.AssetRef = strings.TrimSpace(r.AssetRef)
		records = append(records, r)
	}

	slices.SortFunc(records, func(a, b domain.CatalogRecord) int {
		return domain.CompareIDs(a.ID, b.ID)
	})
	return records, nil
}
