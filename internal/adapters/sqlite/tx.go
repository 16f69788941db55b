package sqlite

import (
	"context"
	"database/sql"

	"catalogsync/internal/domain"
)

// catalogTx batches catalog writes inside one transaction
type catalogTx struct {
	tx    *sql.Tx
	table string
	now   int64
}

// upsert inserts a record or replaces an existing one with the same id
func (t *catalogTx) upsert(ctx context.Context, r domain.CatalogRecord) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO `+t.table+` (id, name, category, asset_ref, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			asset_ref = excluded.asset_ref,
			updated_at = excluded.updated_at
	`, r.ID, r.Name, nullable(r.Category), nullable(r.AssetRef), t.now)
	return err
}
