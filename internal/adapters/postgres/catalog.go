// Package postgres implements the catalog store on PostgreSQL, the managed
// relational store storefronts usually keep their products in.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"catalogsync/internal/application"
	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

// DefaultTable is the catalog table used when none is configured
const DefaultTable = "products"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// CatalogStore implements ports.CatalogStore on an existing products table.
// Only id, name, category and asset_ref are touched; ids are compared as
// text so integer and uuid keys both work.
type CatalogStore struct {
	pool  *pgxpool.Pool
	table string // sanitized identifier
}

var (
	_ ports.CatalogStore    = (*CatalogStore)(nil)
	_ ports.CatalogImporter = (*CatalogStore)(nil)
)

// Open connects a pool to dsn and verifies the connection
func Open(ctx context.Context, dsn, table string, maxConns int32) (*CatalogStore, error) {
	ident, err := sanitizeTable(table)
	if err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, &application.ValidationError{
			Field:   "dsn",
			Message: fmt.Sprintf("cannot parse: %v", err),
		}
	}
	if maxConns <= 0 {
		maxConns = 4
	}
	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, application.Unavailable("catalog", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, application.Unavailable("catalog", err)
	}
	return &CatalogStore{pool: pool, table: ident}, nil
}

// Close releases the pool
func (s *CatalogStore) Close() error {
	s.pool.Close()
	return nil
}

// EnsureSchema creates the catalog table when it does not exist, for
// fresh databases seeded through catalog import
func (s *CatalogStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+s.table+` (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT,
			asset_ref TEXT
		)`)
	if err != nil {
		return classify(fmt.Errorf("failed to create table: %w", err))
	}
	return nil
}

// ListRecords returns records matching filter ordered by id
func (s *CatalogStore) ListRecords(ctx context.Context, filter ports.RecordFilter) ([]domain.CatalogRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		args = append(args, domain.CategoryKey(filter.Category))
		where = append(where, fmt.Sprintf("lower(btrim(category)) = $%d", len(args)))
	}
	if len(filter.IDs) > 0 {
		args = append(args, filter.IDs)
		where = append(where, fmt.Sprintf("id::text = ANY($%d)", len(args)))
	}
	if filter.OnlyWithAsset {
		where = append(where, "asset_ref IS NOT NULL AND asset_ref <> ''")
	}

	q := "SELECT id::text, name, category, asset_ref FROM " + s.table
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("query records: %w", err))
	}
	defer rows.Close()

	var records []domain.CatalogRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("read records: %w", err))
	}
	return records, nil
}

// UpdateRecordAsset sets a record's asset ref; an empty ref stores NULL
func (s *CatalogStore) UpdateRecordAsset(ctx context.Context, id, assetRef string) (*domain.CatalogRecord, error) {
	row := s.pool.QueryRow(ctx,
		"UPDATE "+s.table+" SET asset_ref = $1 WHERE id::text = $2 RETURNING id::text, name, category, asset_ref",
		nullable(assetRef), id,
	)
	r, err := scanRecord(row)
	if errors.Is(err, application.ErrNotFound) {
		return nil, fmt.Errorf("record %s: %w", id, application.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpsertRecords inserts or replaces records by id in one transaction
func (s *CatalogStore) UpsertRecords(ctx context.Context, records []domain.CatalogRecord) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, classify(fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO `+s.table+` (id, name, category, asset_ref)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				category = EXCLUDED.category,
				asset_ref = EXCLUDED.asset_ref`,
			r.ID, r.Name, nullable(r.Category), nullable(r.AssetRef),
		)
	}
	br := tx.SendBatch(ctx, batch)
	for _, r := range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, classify(fmt.Errorf("upsert record %s: %w", r.ID, err))
		}
	}
	if err := br.Close(); err != nil {
		return 0, classify(fmt.Errorf("upsert: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, classify(fmt.Errorf("commit: %w", err))
	}
	return len(records), nil
}

func scanRecord(row pgx.Row) (domain.CatalogRecord, error) {
	var (
		r                  domain.CatalogRecord
		category, assetRef *string
	)
	if err := row.Scan(&r.ID, &r.Name, &category, &assetRef); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r, application.ErrNotFound
		}
		return r, classify(fmt.Errorf("scan record: %w", err))
	}
	if category != nil {
		r.Category = *category
	}
	if assetRef != nil {
		r.AssetRef = *assetRef
	}
	return r, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func sanitizeTable(table string) (string, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return "", &application.ValidationError{
			Field:   "table",
			Message: fmt.Sprintf("invalid table name: %q", table),
		}
	}
	return pgx.Identifier(strings.Split(table, ".")).Sanitize(), nil
}

// classify marks connection loss, timeouts and serialization conflicts as
// transient so callers may retry them
func classify(err error) error {
	if err == nil {
		return nil
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return application.Unavailable("catalog", err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001", // serialization_failure
			pgErr.Code == "40P01", // deadlock_detected
			pgErr.Code == "57P03", // cannot_connect_now
			strings.HasPrefix(pgErr.Code, "08"):
			return application.Unavailable("catalog", err)
		}
	}
	return err
}
