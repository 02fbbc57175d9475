package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/runger/searchpick/internal/search"
)

// SQLiteStore keeps items in a SQLite database and serves them in
// insertion order.
type SQLiteStore struct {
	db        *sql.DB
	closeOnce sync.Once // ensures Close() is idempotent
	closeErr  error     // stores the error from Close()
}

// Compile-time check that SQLiteStore implements search.Fetcher.
var _ search.Fetcher = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at dbPath.
// The database is opened with WAL mode enabled so an item server and an
// importer can share it.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// modernc.org/sqlite uses _pragma=name(value) syntax
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
// It is safe to call Close multiple times.
func (s *SQLiteStore) Close() error {
	s.closeOnce.Do(func() {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// Fetch returns up to limit items starting at offset, in insertion order.
func (s *SQLiteStore) Fetch(ctx context.Context, offset, limit int) ([]*search.Item, error) {
	if offset < 0 || limit < 1 {
		return nil, fmt.Errorf("invalid page offset=%d limit=%d", offset, limit)
	}
	return s.query(ctx, offset, limit)
}

// Load returns the first n items. A non-positive n loads everything.
func (s *SQLiteStore) Load(ctx context.Context, n int) ([]*search.Item, error) {
	if n <= 0 {
		n = -1 // no LIMIT in SQLite
	}
	return s.query(ctx, 0, n)
}

// Loader adapts Load to search.Loader with a fixed initial size.
func (s *SQLiteStore) Loader(n int) search.Loader {
	return search.LoaderFunc(func(ctx context.Context) ([]*search.Item, error) {
		return s.Load(ctx, n)
	})
}

// Count returns the number of stored items.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

// Import appends items in one transaction and returns the batch id they
// were recorded under.
func (s *SQLiteStore) Import(ctx context.Context, items []*search.Item) (string, error) {
	batch := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (id, sub_id, title, subtitle, logo, payload, batch, created_at_unix_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for i, it := range items {
		payload, err := encodePayload(it.Payload)
		if err != nil {
			return "", fmt.Errorf("item %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx,
			it.ID, it.SubID, CleanText(it.Title), CleanText(it.Subtitle), it.Logo,
			payload, batch, now,
		); err != nil {
			return "", fmt.Errorf("failed to insert item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit import: %w", err)
	}
	return batch, nil
}

func (s *SQLiteStore) query(ctx context.Context, offset, limit int) ([]*search.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sub_id, title, subtitle, logo, payload
		FROM items
		ORDER BY seq
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []*search.Item
	for rows.Next() {
		var (
			id, subID             int
			title, subtitle, logo string
			payload               sql.NullString
		)
		if err := rows.Scan(&id, &subID, &title, &subtitle, &logo, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		it := search.NewItem(id, title)
		it.SubID = subID
		it.Subtitle = subtitle
		it.Logo = logo
		if payload.Valid {
			it.Payload = json.RawMessage(payload.String)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	return items, nil
}

func encodePayload(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return sql.NullString{String: string(raw), Valid: true}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode payload: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// migrate runs database migrations to ensure the schema is up to date.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaMetaSQL); err != nil {
		return fmt.Errorf("failed to create schema_meta: %w", err)
	}

	currentVersion := 0
	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_meta`)
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{version: 1, sql: migrationV1},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("migration v%d failed: %w", m.version, err)
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO schema_meta (version, applied_at_unix_ms)
			VALUES (?, ?)
		`, m.version, time.Now().UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to record migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// IsBusy reports whether err is SQLite refusing a locked database.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

const schemaMetaSQL = `
CREATE TABLE IF NOT EXISTS schema_meta (
  version INTEGER PRIMARY KEY,
  applied_at_unix_ms INTEGER NOT NULL
);
`

// migrationV1 creates the item table.
const migrationV1 = `
CREATE TABLE IF NOT EXISTS items (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id INTEGER NOT NULL DEFAULT 0,
  sub_id INTEGER NOT NULL DEFAULT 0,
  title TEXT NOT NULL DEFAULT '',
  subtitle TEXT NOT NULL DEFAULT '',
  logo TEXT NOT NULL DEFAULT '',
  payload TEXT,
  batch TEXT NOT NULL,
  created_at_unix_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_batch ON items(batch);
`
