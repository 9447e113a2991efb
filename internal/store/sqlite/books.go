package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/store"
	"github.com/shelfwise/shelfwise-server/internal/textutil"
)

// bookColumns must match the scan order in scanBook.
const bookColumns = `b.seq, b.id, b.created_at, b.updated_at, b.title, b.author,
	b.published_year, b.categories, b.available, b.image_url, b.description,
	b.rating, b.num_reviews`

type scanner interface{ Scan(dest ...any) error }

func scanBookSeq(row scanner) (*domain.Book, int64, error) {
	var (
		b          domain.Book
		seq        int64
		createdAt  string
		updatedAt  string
		year       sql.NullInt64
		categories string
		available  int
		imageURL   sql.NullString
		desc       sql.NullString
	)
	err := row.Scan(&seq, &b.ID, &createdAt, &updatedAt, &b.Title, &b.Author,
		&year, &categories, &available, &imageURL, &desc, &b.Rating, &b.NumReviews)
	if err != nil {
		return nil, 0, err
	}

	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, 0, fmt.Errorf("parse created_at: %w", err)
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, 0, fmt.Errorf("parse updated_at: %w", err)
	}
	if err := json.Unmarshal([]byte(categories), &b.Categories); err != nil {
		return nil, 0, fmt.Errorf("decode categories for %s: %w", b.ID, err)
	}
	if b.Categories == nil {
		b.Categories = []string{}
	}
	b.PublishedYear = int(year.Int64)
	b.Available = available != 0
	b.ImageURL = imageURL.String
	b.Description = desc.String
	return &b, seq, nil
}

func scanBook(row scanner) (*domain.Book, error) {
	b, _, err := scanBookSeq(row)
	return b, err
}

func (s *Store) queryBooks(ctx context.Context, query string, args ...any) ([]domain.Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	books := []domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

// CreateBook inserts a book and its category rows.
// Returns store.ErrAlreadyExists if the ID is taken.
func (s *Store) CreateBook(ctx context.Context, b *domain.Book) error {
	cats, err := json.Marshal(nonNil(b.Categories))
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO books (
			id, created_at, updated_at, title, title_fold, author, author_fold,
			published_year, categories, available, image_url, description,
			rating, num_reviews
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		formatTime(b.CreatedAt),
		formatTime(b.UpdatedAt),
		b.Title,
		textutil.Fold(b.Title),
		b.Author,
		textutil.Fold(b.Author),
		nullInt(b.PublishedYear),
		string(cats),
		boolToInt(b.Available),
		nullString(b.ImageURL),
		nullString(b.Description),
		b.Rating,
		b.NumReviews,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("book already exists")
		}
		return fmt.Errorf("insert book: %w", err)
	}

	if err := replaceCategories(ctx, tx, b.ID, b.Categories); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.indexBook(b)
	return nil
}

// UpdateBook overwrites a book's editable fields and categories.
// Rating and review count are owned by the review methods and left as is.
func (s *Store) UpdateBook(ctx context.Context, b *domain.Book) error {
	cats, err := json.Marshal(nonNil(b.Categories))
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE books SET
			updated_at = ?, title = ?, title_fold = ?, author = ?, author_fold = ?,
			published_year = ?, categories = ?, available = ?, image_url = ?,
			description = ?
		WHERE id = ?`,
		formatTime(b.UpdatedAt),
		b.Title,
		textutil.Fold(b.Title),
		b.Author,
		textutil.Fold(b.Author),
		nullInt(b.PublishedYear),
		string(cats),
		boolToInt(b.Available),
		nullString(b.ImageURL),
		nullString(b.Description),
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound.WithMessage("book not found")
	}

	if err := replaceCategories(ctx, tx, b.ID, b.Categories); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.indexBook(b)
	return nil
}

// DeleteBook removes a book. Favorites, history entries and reviews that
// reference it are removed by cascade.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound.WithMessage("book not found")
	}
	if err := s.searchIndexer().DeleteBook(id); err != nil {
		s.logger.Warn("failed to remove book from search index", "book_id", id, "error", err)
	}
	return nil
}

// GetBook returns a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books b WHERE b.id = ?`, id)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("book not found")
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBooks returns the books with the given IDs in the order given.
// Unknown IDs are skipped.
func (s *Store) GetBooks(ctx context.Context, ids []string) ([]domain.Book, error) {
	if len(ids) == 0 {
		return []domain.Book{}, nil
	}
	found, err := s.queryBooks(ctx,
		`SELECT `+bookColumns+` FROM books b WHERE b.id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Book, len(found))
	for _, b := range found {
		byID[b.ID] = b
	}
	out := make([]domain.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

// AllBooks returns the whole catalog in insertion order.
func (s *Store) AllBooks(ctx context.Context) ([]domain.Book, error) {
	return s.queryBooks(ctx, `SELECT `+bookColumns+` FROM books b ORDER BY b.seq`)
}

// CountBooks returns the catalog size.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n)
	return n, err
}

// ListBooks pages through the catalog newest first: created_at descending,
// later insertions first on ties, the same order NewestBooks uses.
func (s *Store) ListBooks(ctx context.Context, f store.BookFilter) (store.Page[domain.Book], error) {
	f.Normalize()
	page := store.Page[domain.Book]{Items: []domain.Book{}}

	after, err := store.DecodeCursor(f.Cursor)
	if err != nil {
		return page, err
	}

	var (
		where []string
		args  []any
	)
	if q := textutil.Fold(f.Query); q != "" {
		where = append(where, `(instr(b.title_fold, ?) > 0 OR instr(b.author_fold, ?) > 0)`)
		args = append(args, q, q)
	}
	if c := textutil.Fold(f.Category); c != "" {
		where = append(where, `EXISTS (SELECT 1 FROM book_categories c WHERE c.book_id = b.id AND c.category_fold = ?)`)
		args = append(args, c)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books b`+clause, args...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count books: %w", err)
	}

	pageWhere := append([]string(nil), where...)
	pageArgs := append([]any(nil), args...)
	if !after.IsZero() {
		pageWhere = append(pageWhere, `(b.created_at < ? OR (b.created_at = ? AND b.seq < ?))`)
		pageArgs = append(pageArgs, after.CreatedAt, after.CreatedAt, after.Seq)
	}
	pageClause := ""
	if len(pageWhere) > 0 {
		pageClause = " WHERE " + strings.Join(pageWhere, " AND ")
	}
	pageArgs = append(pageArgs, f.Limit+1)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books b`+pageClause+` ORDER BY b.created_at DESC, b.seq DESC LIMIT ?`, pageArgs...)
	if err != nil {
		return page, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var last store.Cursor
	for rows.Next() {
		b, seq, err := scanBookSeq(rows)
		if err != nil {
			return page, fmt.Errorf("scan book: %w", err)
		}
		if len(page.Items) == f.Limit {
			page.HasMore = true
			break
		}
		page.Items = append(page.Items, *b)
		last = store.Cursor{CreatedAt: formatTime(b.CreatedAt), Seq: seq}
	}
	if err := rows.Err(); err != nil {
		return page, err
	}
	if page.HasMore {
		page.NextCursor = store.EncodeCursor(last)
	}
	return page, nil
}

// FindBooks runs the assistant's catalog lookup: each set field is a
// case-insensitive substring match and the fields are ANDed. A category
// matches when any of the book's categories contains it.
func (s *Store) FindBooks(ctx context.Context, f store.LookupFilter) ([]domain.Book, error) {
	var (
		where []string
		args  []any
	)
	if v := textutil.Fold(f.Title); v != "" {
		where = append(where, `instr(b.title_fold, ?) > 0`)
		args = append(args, v)
	}
	if v := textutil.Fold(f.Author); v != "" {
		where = append(where, `instr(b.author_fold, ?) > 0`)
		args = append(args, v)
	}
	if v := textutil.Fold(f.Category); v != "" {
		where = append(where, `EXISTS (SELECT 1 FROM book_categories c WHERE c.book_id = b.id AND instr(c.category_fold, ?) > 0)`)
		args = append(args, v)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 5
	}
	args = append(args, limit)
	return s.queryBooks(ctx, `SELECT `+bookColumns+` FROM books b`+clause+` ORDER BY b.seq LIMIT ?`, args...)
}

// NewestBooks returns up to limit books by creation time, newest first,
// skipping the excluded IDs. Books created at the same instant are ordered
// by most recent insertion.
func (s *Store) NewestBooks(ctx context.Context, limit int, exclude []string) ([]domain.Book, error) {
	if limit <= 0 {
		return []domain.Book{}, nil
	}
	query := `SELECT ` + bookColumns + ` FROM books b`
	args := stringArgs(exclude)
	if len(exclude) > 0 {
		query += ` WHERE b.id NOT IN (` + placeholders(len(exclude)) + `)`
	}
	query += ` ORDER BY b.created_at DESC, b.seq DESC LIMIT ?`
	args = append(args, limit)
	return s.queryBooks(ctx, query, args...)
}

// BooksInCategories returns up to limit books carrying at least one of the
// categories (compared case-folded), skipping the excluded IDs, in catalog
// insertion order.
func (s *Store) BooksInCategories(ctx context.Context, categories, exclude []string, limit int) ([]domain.Book, error) {
	if limit <= 0 || len(categories) == 0 {
		return []domain.Book{}, nil
	}

	folded := make([]string, 0, len(categories))
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		f := textutil.Fold(c)
		if _, dup := seen[f]; dup || f == "" {
			continue
		}
		seen[f] = struct{}{}
		folded = append(folded, f)
	}
	if len(folded) == 0 {
		return []domain.Book{}, nil
	}

	query := `SELECT ` + bookColumns + ` FROM books b
		WHERE EXISTS (
			SELECT 1 FROM book_categories c
			WHERE c.book_id = b.id AND c.category_fold IN (` + placeholders(len(folded)) + `)
		)`
	args := stringArgs(folded)
	if len(exclude) > 0 {
		query += ` AND b.id NOT IN (` + placeholders(len(exclude)) + `)`
		args = append(args, stringArgs(exclude)...)
	}
	query += ` ORDER BY b.seq LIMIT ?`
	args = append(args, limit)
	return s.queryBooks(ctx, query, args...)
}

func replaceCategories(ctx context.Context, tx *sql.Tx, bookID string, categories []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM book_categories WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("delete book_categories: %w", err)
	}
	for i, c := range categories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO book_categories (book_id, position, category, category_fold)
			VALUES (?, ?, ?, ?)`,
			bookID, i, c, textutil.Fold(c))
		if err != nil {
			return fmt.Errorf("insert book_category: %w", err)
		}
	}
	return nil
}

func (s *Store) indexBook(b *domain.Book) {
	if err := s.searchIndexer().IndexBook(b); err != nil {
		s.logger.Warn("failed to index book", "book_id", b.ID, "error", err)
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
