package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"catalogsync/internal/application"
	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

// DefaultTable is the catalog table used when none is configured
const DefaultTable = "products"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CatalogStore implements ports.CatalogStore on a SQLite table
type CatalogStore struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// Ensure CatalogStore implements the catalog ports
var (
	_ ports.CatalogStore    = (*CatalogStore)(nil)
	_ ports.CatalogImporter = (*CatalogStore)(nil)
)

// Open opens (creating if needed) the catalog database at path
func Open(path, table string) (*CatalogStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, &application.ValidationError{
			Field:   "table",
			Message: fmt.Sprintf("invalid table name: %q", table),
		}
	}

	// Expand ~ in path
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, application.Unavailable("catalog", err)
	}

	// SQLite has a single writer; one connection also keeps :memory: alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Pragmas + schema in single batch
	_, err = db.Exec(fmt.Sprintf(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS %[1]s (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT,
			asset_ref TEXT,
			updated_at INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_category ON %[1]s(category);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_asset_ref ON %[1]s(asset_ref);
	`, table))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	return &CatalogStore{db: db, table: table, now: time.Now}, nil
}

// Close closes the database connection
func (s *CatalogStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ListRecords returns records matching filter ordered by id text
func (s *CatalogStore) ListRecords(ctx context.Context, filter ports.RecordFilter) ([]domain.CatalogRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		where = append(where, "lower(trim(category)) = ?")
		args = append(args, domain.CategoryKey(filter.Category))
	}
	if len(filter.IDs) > 0 {
		where = append(where, "id IN ("+placeholders(len(filter.IDs))+")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	if filter.OnlyWithAsset {
		where = append(where, "asset_ref IS NOT NULL AND asset_ref != ''")
	}

	query := "SELECT id, name, category, asset_ref FROM " + s.table
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query records: %w", err))
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
		return nil, classify(fmt.Errorf("failed to read records: %w", err))
	}
	return records, nil
}

// UpdateRecordAsset sets a record's asset ref; an empty ref stores NULL
func (s *CatalogStore) UpdateRecordAsset(ctx context.Context, id, assetRef string) (*domain.CatalogRecord, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE "+s.table+" SET asset_ref = ?, updated_at = ? WHERE id = ?",
		nullable(assetRef), s.now().Unix(), id,
	)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to update record %s: %w", id, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, classify(err)
	}
	if n == 0 {
		return nil, fmt.Errorf("record %s: %w", id, application.ErrNotFound)
	}

	row := s.db.QueryRowContext(ctx, "SELECT id, name, category, asset_ref FROM "+s.table+" WHERE id = ?", id)
	r, err := scanRecord(row)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpsertRecords inserts or replaces records by id in one transaction
func (s *CatalogStore) UpsertRecords(ctx context.Context, records []domain.CatalogRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	t := &catalogTx{tx: tx, table: s.table, now: s.now().Unix()}
	for _, r := range records {
		if err := t.upsert(ctx, r); err != nil {
			tx.Rollback()
			return 0, classify(fmt.Errorf("failed to upsert record %s: %w", r.ID, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, classify(fmt.Errorf("failed to commit: %w", err))
	}
	return len(records), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (domain.CatalogRecord, error) {
	var (
		r                  domain.CatalogRecord
		category, assetRef sql.NullString
	)
	if err := sc.Scan(&r.ID, &r.Name, &category, &assetRef); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, application.ErrNotFound
		}
		return r, classify(fmt.Errorf("failed to scan record: %w", err))
	}
	r.Category = category.String
	r.AssetRef = assetRef.String
	return r, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// classify marks lock contention as transient so callers may retry
func classify(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return application.Unavailable("catalog", err)
	}
	return err
}
