// Package sqlite is the SQLite-backed record store for the catalog, readers,
// their favorites and view history, and reviews.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shelfwise/shelfwise-server/internal/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store provides SQLite-backed persistence.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu      sync.RWMutex
	indexer store.SearchIndexer
}

// Open opens (creating if needed) the database at path, applies pragmas and
// the embedded schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}
	if err := normalizeTimestamps(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger, indexer: store.NoopSearchIndexer{}}, nil
}

// dsn applies the pragmas through the connection string so every pooled
// connection gets them, not only the first. Transactions take the write lock
// up front to avoid busy upgrades under WAL.
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// timestampColumns lists every TEXT timestamp column.
var timestampColumns = []struct{ table, column string }{
	{"books", "created_at"},
	{"books", "updated_at"},
	{"users", "created_at"},
	{"users", "updated_at"},
	{"favorites", "created_at"},
	{"view_history", "viewed_at"},
	{"reviews", "created_at"},
}

// normalizeTimestamps rewrites timestamps written in another layout (older
// databases stored RFC3339Nano) to timeLayout.
func normalizeTimestamps(ctx context.Context, db *sql.DB) error {
	width := len(formatTime(time.Time{}))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, tc := range timestampColumns {
		rows, err := tx.QueryContext(ctx,
			`SELECT rowid, `+tc.column+` FROM `+tc.table+` WHERE length(`+tc.column+`) != ?`, width)
		if err != nil {
			return fmt.Errorf("scan %s.%s: %w", tc.table, tc.column, err)
		}
		fixed := map[int64]string{}
		for rows.Next() {
			var (
				rowid int64
				raw   string
			)
			if err := rows.Scan(&rowid, &raw); err != nil {
				rows.Close()
				return err
			}
			t, err := parseTime(raw)
			if err != nil {
				rows.Close()
				return fmt.Errorf("parse %s.%s %q: %w", tc.table, tc.column, raw, err)
			}
			fixed[rowid] = formatTime(t)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}

		for rowid, v := range fixed {
			if _, err := tx.ExecContext(ctx,
				`UPDATE `+tc.table+` SET `+tc.column+` = ? WHERE rowid = ?`, v, rowid); err != nil {
				return fmt.Errorf("rewrite %s.%s: %w", tc.table, tc.column, err)
			}
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SetSearchIndexer wires the index that mirrors catalog writes.
func (s *Store) SetSearchIndexer(indexer store.SearchIndexer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexer = indexer
}

func (s *Store) searchIndexer() store.SearchIndexer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexer
}

// timeLayout is fixed width so stored timestamps sort as text in time
// order. RFC3339Nano trims trailing zeros and does not.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(v int) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// placeholders returns "?, ?, ?" for n values.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
