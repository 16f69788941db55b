package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"catalogsync/internal/application"
	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

// AssetUsage is an asset with the records currently pointing at it
type AssetUsage struct {
	domain.AssetDescriptor
	RecordIDs []string `json:"recordIds"`
}

// Uses returns how many records reference the asset
func (u AssetUsage) Uses() int {
	return len(u.RecordIDs)
}

// ListAssetsCommand lists the asset pool with usage counts
type ListAssetsCommand struct {
	engine     *Engine
	Categories []string
	UnusedOnly bool
}

// NewListAssetsCommand creates a new ListAssetsCommand
func NewListAssetsCommand(engine *Engine, categories []string, unusedOnly bool) *ListAssetsCommand {
	return &ListAssetsCommand{engine: engine, Categories: categories, UnusedOnly: unusedOnly}
}

// Execute returns assets sorted by path
func (c *ListAssetsCommand) Execute(ctx context.Context) ([]AssetUsage, error) {
	snap, err := c.engine.Snapshot(ctx, ports.RecordFilter{OnlyWithAsset: true}, c.Categories)
	if err != nil {
		return nil, err
	}

	users := make(map[string][]string)
	for _, st := range snap.Report.Statuses {
		if st.Asset != nil {
			users[st.Asset.Path] = append(users[st.Asset.Path], st.Record.ID)
		}
	}

	out := make([]AssetUsage, 0, snap.Inventory.Len())
	for _, a := range snap.Inventory.All() {
		ids := users[a.Path]
		if c.UnusedOnly && len(ids) > 0 {
			continue
		}
		if ids == nil {
			ids = []string{}
		}
		out = append(out, AssetUsage{AssetDescriptor: a, RecordIDs: ids})
	}
	slices.SortFunc(out, func(a, b AssetUsage) int {
		return strings.Compare(a.Path, b.Path)
	})
	return out, nil
}

// ImportCatalogCommand seeds a catalog store in bulk
type ImportCatalogCommand struct {
	importer ports.CatalogImporter
	Records  []domain.CatalogRecord
}

// NewImportCatalogCommand creates a new ImportCatalogCommand
func NewImportCatalogCommand(importer ports.CatalogImporter, records []domain.CatalogRecord) *ImportCatalogCommand {
	return &ImportCatalogCommand{importer: importer, Records: records}
}

// Validate checks every record has an id and a name
func (c *ImportCatalogCommand) Validate() error {
	if len(c.Records) == 0 {
		return &application.ValidationError{
			Field:   "records",
			Message: "nothing to import",
		}
	}
	for i, r := range c.Records {
		if err := application.ValidateRequired("id", r.ID); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if err := application.ValidateRequired("name", r.Name); err != nil {
			return fmt.Errorf("record %s: %w", r.ID, err)
		}
	}
	return nil
}

// Execute upserts the records and returns how many were written
func (c *ImportCatalogCommand) Execute(ctx context.Context) (int, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	n, err := c.importer.UpsertRecords(ctx, c.Records)
	if err != nil {
		return n, fmt.Errorf("failed to import records: %w", err)
	}
	return n, nil
}
