package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// missingReference names which side of a (user, book) row is absent after a
// foreign key failure.
func missingReference(ctx context.Context, q rowQueryer, userID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound.WithMessage("user not found")
	}
	return store.ErrNotFound.WithMessage("book not found")
}

// AddFavorite marks a book as a user's favorite.
// Returns store.ErrAlreadyExists when it already is one and store.ErrNotFound
// when the user or book does not exist.
func (s *Store) AddFavorite(ctx context.Context, userID, bookID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO favorites (user_id, book_id, created_at) VALUES (?, ?, ?)`,
		userID, bookID, formatTime(at))
	switch {
	case isUniqueViolation(err):
		return store.ErrAlreadyExists.WithMessage("book is already a favorite")
	case isForeignKeyViolation(err):
		return missingReference(ctx, s.db, userID)
	case err != nil:
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

// RemoveFavorite removes a book from a user's favorites.
// Returns store.ErrNotFound when it was not a favorite.
func (s *Store) RemoveFavorite(ctx context.Context, userID, bookID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ? AND book_id = ?`, userID, bookID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound.WithMessage("book is not a favorite")
	}
	return nil
}

// ListFavorites returns a user's favorite books in the order they were added.
func (s *Store) ListFavorites(ctx context.Context, userID string) ([]domain.Book, error) {
	return s.queryBooks(ctx, `
		SELECT `+bookColumns+`
		FROM favorites f
		JOIN books b ON b.id = f.book_id
		WHERE f.user_id = ?
		ORDER BY f.created_at, f.rowid`, userID)
}

// RecordView records that a user opened a book. The book moves to the
// front of the history; entries beyond domain.MaxViewHistory are dropped.
func (s *Store) RecordView(ctx context.Context, userID, bookID string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM view_history WHERE user_id = ?`, userID).Scan(&next); err != nil {
		return fmt.Errorf("next history seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO view_history (user_id, book_id, viewed_at, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, book_id) DO UPDATE SET
			viewed_at = excluded.viewed_at,
			seq = excluded.seq`,
		userID, bookID, formatTime(at), next)
	if err != nil {
		if isForeignKeyViolation(err) {
			return missingReference(ctx, tx, userID)
		}
		return fmt.Errorf("upsert view: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM view_history
		WHERE user_id = ? AND book_id NOT IN (
			SELECT book_id FROM view_history WHERE user_id = ? ORDER BY seq DESC LIMIT ?
		)`, userID, userID, domain.MaxViewHistory)
	if err != nil {
		return fmt.Errorf("trim history: %w", err)
	}

	return tx.Commit()
}

// ListViewHistory returns up to limit history entries, most recent first,
// with their books resolved.
func (s *Store) ListViewHistory(ctx context.Context, userID string, limit int) ([]domain.ViewEntry, error) {
	if limit <= 0 || limit > domain.MaxViewHistory {
		limit = domain.MaxViewHistory
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.viewed_at, `+bookColumns+`
		FROM view_history h
		JOIN books b ON b.id = h.book_id
		WHERE h.user_id = ?
		ORDER BY h.seq DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []domain.ViewEntry{}
	for rows.Next() {
		var viewedAt string
		b, err := scanBook(prefixScanner{rows, &viewedAt})
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		t, err := parseTime(viewedAt)
		if err != nil {
			return nil, fmt.Errorf("parse viewed_at: %w", err)
		}
		out = append(out, domain.ViewEntry{BookID: b.ID, ViewedAt: t, Book: b})
	}
	return out, rows.Err()
}

// TopFavorited returns the most favorited books, most popular first.
func (s *Store) TopFavorited(ctx context.Context, limit int) ([]store.FavoriteCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COUNT(*) AS n, `+bookColumns+`
		FROM favorites f
		JOIN books b ON b.id = f.book_id
		GROUP BY b.id
		ORDER BY n DESC, b.seq
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top favorited: %w", err)
	}
	defer rows.Close()

	out := []store.FavoriteCount{}
	for rows.Next() {
		var n int
		b, err := scanBook(prefixScanner{rows, &n})
		if err != nil {
			return nil, fmt.Errorf("scan top favorited: %w", err)
		}
		out = append(out, store.FavoriteCount{Book: *b, Count: n})
	}
	return out, rows.Err()
}

// prefixScanner scans leading columns into extra before the book columns.
type prefixScanner struct {
	row   scanner
	extra any
}

func (p prefixScanner) Scan(dest ...any) error {
	return p.row.Scan(append([]any{p.extra}, dest...)...)
}
