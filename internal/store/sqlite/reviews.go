package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

const reviewColumns = `r.id, r.created_at, r.book_id, r.user_id, u.name, r.rating, r.comment`

func scanReview(row scanner) (*domain.Review, error) {
	var (
		r         domain.Review
		createdAt string
		comment   sql.NullString
	)
	if err := row.Scan(&r.ID, &createdAt, &r.BookID, &r.UserID, &r.UserName, &r.Rating, &comment); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	r.CreatedAt = t
	r.Comment = comment.String
	return &r, nil
}

// CreateReview stores a review and refreshes the book's rating and review
// count. Returns store.ErrAlreadyExists when the user already reviewed the
// book and store.ErrNotFound when the book does not exist.
func (s *Store) CreateReview(ctx context.Context, r *domain.Review) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reviews (id, created_at, book_id, user_id, rating, comment)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, formatTime(r.CreatedAt), r.BookID, r.UserID, r.Rating, nullString(r.Comment))
	switch {
	case isUniqueViolation(err):
		return store.ErrAlreadyExists.WithMessage("you have already reviewed this book")
	case isForeignKeyViolation(err):
		return store.ErrNotFound.WithMessage("book not found")
	case err != nil:
		return fmt.Errorf("insert review: %w", err)
	}

	if err := refreshRating(ctx, tx, r.BookID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetReview returns a review by ID.
func (s *Store) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews r JOIN users u ON u.id = r.user_id
		WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("review not found")
	}
	return r, err
}

// ListReviews returns a book's reviews, oldest first.
func (s *Store) ListReviews(ctx context.Context, bookID string) ([]domain.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews r JOIN users u ON u.id = r.user_id
		WHERE r.book_id = ?
		ORDER BY r.created_at, r.rowid`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	out := []domain.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// DeleteReview removes a review and refreshes the book's rating. A book
// left without reviews goes back to a zero rating.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var bookID string
	err = tx.QueryRowContext(ctx, `DELETE FROM reviews WHERE id = ? RETURNING book_id`, id).Scan(&bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound.WithMessage("review not found")
	}
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if err := refreshRating(ctx, tx, bookID); err != nil {
		return err
	}
	return tx.Commit()
}

func refreshRating(ctx context.Context, tx *sql.Tx, bookID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE books SET
			rating = COALESCE((SELECT AVG(rating) FROM reviews WHERE book_id = ?), 0),
			num_reviews = (SELECT COUNT(*) FROM reviews WHERE book_id = ?)
		WHERE id = ?`, bookID, bookID, bookID)
	if err != nil {
		return fmt.Errorf("refresh rating: %w", err)
	}
	return nil
}
