package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/id"
	"github.com/shelfwise/shelfwise-server/internal/store/sqlite"
	"github.com/shelfwise/shelfwise-server/internal/validation"
)

// ReviewService manages book reviews and the ratings derived from them.
type ReviewService struct {
	store     *sqlite.Store
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewReviewService creates a new review service.
func NewReviewService(store *sqlite.Store, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		store:     store,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// ReviewInput is a reader's rating and comment.
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=5000"`
}

// CreateReview adds the user's review of a book. A user reviews a book once.
func (s *ReviewService) CreateReview(ctx context.Context, userID, bookID string, in ReviewInput) (*domain.Review, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	r := &domain.Review{
		ID:        id.MustGenerate(id.PrefixReview),
		BookID:    bookID,
		UserID:    userID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: s.now(),
	}
	if err := s.store.CreateReview(ctx, r); err != nil {
		return nil, err
	}
	// Re-read for the reviewer's display name.
	return s.store.GetReview(ctx, r.ID)
}

// ListReviews returns a book's reviews, oldest first.
func (s *ReviewService) ListReviews(ctx context.Context, bookID string) ([]domain.Review, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.store.ListReviews(ctx, bookID)
}

// DeleteReview removes a review and recomputes the book's rating.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID string) error {
	if err := s.store.DeleteReview(ctx, reviewID); err != nil {
		return err
	}
	s.logger.Info("review deleted", "review_id", reviewID)
	return nil
}
