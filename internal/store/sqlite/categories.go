package sqlite

import (
	"context"
	"fmt"
	"slices"

	"github.com/goccy/go-json"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

// ListCategories returns the distinct categories in the catalog, sorted.
// Spellings that fold to the same key are reported once, using the
// spelling seen first.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category FROM (
			SELECT category, category_fold,
			       ROW_NUMBER() OVER (PARTITION BY category_fold ORDER BY rowid) AS rn
			FROM book_categories
		)
		WHERE rn = 1
		ORDER BY category_fold`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CategoryCounts returns how many books carry each category, most used first.
func (s *Store) CategoryCounts(ctx context.Context) ([]store.CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT MIN(category), COUNT(DISTINCT book_id) AS n
		FROM book_categories
		GROUP BY category_fold
		ORDER BY n DESC, category_fold`)
	if err != nil {
		return nil, fmt.Errorf("query category counts: %w", err)
	}
	defer rows.Close()

	out := []store.CategoryCount{}
	for rows.Next() {
		var c store.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RewriteCategories applies fn to the categories of every book and saves
// the books whose categories changed, in one transaction. It returns the
// number of books updated.
func (s *Store) RewriteCategories(ctx context.Context, fn func([]string) []string) (int, error) {
	books, err := s.AllBooks(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var changed []*domain.Book
	for i := range books {
		b := &books[i]
		next := nonNil(fn(slices.Clone(b.Categories)))
		if slices.Equal(next, b.Categories) {
			continue
		}
		cats, err := json.Marshal(next)
		if err != nil {
			return 0, fmt.Errorf("encode categories: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE books SET categories = ? WHERE id = ?`, string(cats), b.ID); err != nil {
			return 0, fmt.Errorf("update categories for %s: %w", b.ID, err)
		}
		if err := replaceCategories(ctx, tx, b.ID, next); err != nil {
			return 0, err
		}
		b.Categories = next
		changed = append(changed, b)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	for _, b := range changed {
		s.indexBook(b)
	}
	return len(changed), nil
}
