package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/store/sqlite"
)

// UserService manages a reader's favorites and view history.
type UserService struct {
	store  *sqlite.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(store *sqlite.Store, logger *slog.Logger) *UserService {
	return &UserService{store: store, logger: logger, now: time.Now}
}

// GetUser returns an account by ID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.store.GetUser(ctx, userID)
}

// GetProfile returns a user with history and favorites resolved.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.store.GetProfile(ctx, userID)
}

// ListFavorites returns the user's favorite books in the order added.
func (s *UserService) ListFavorites(ctx context.Context, userID string) ([]domain.Book, error) {
	return s.store.ListFavorites(ctx, userID)
}

// AddFavorite favorites a book and returns the updated favorites.
func (s *UserService) AddFavorite(ctx context.Context, userID, bookID string) ([]domain.Book, error) {
	if err := s.store.AddFavorite(ctx, userID, bookID, s.now()); err != nil {
		return nil, err
	}
	s.logger.Debug("favorite added", "user_id", userID, "book_id", bookID)
	return s.store.ListFavorites(ctx, userID)
}

// RemoveFavorite unfavorites a book and returns the updated favorites.
func (s *UserService) RemoveFavorite(ctx context.Context, userID, bookID string) ([]domain.Book, error) {
	if err := s.store.RemoveFavorite(ctx, userID, bookID); err != nil {
		return nil, err
	}
	s.logger.Debug("favorite removed", "user_id", userID, "book_id", bookID)
	return s.store.ListFavorites(ctx, userID)
}

// RecordView moves bookID to the front of the user's history.
func (s *UserService) RecordView(ctx context.Context, userID, bookID string) error {
	return s.store.RecordView(ctx, userID, bookID, s.now())
}

// ListHistory returns up to limit recent views, most recent first.
func (s *UserService) ListHistory(ctx context.Context, userID string, limit int) ([]domain.ViewEntry, error) {
	return s.store.ListViewHistory(ctx, userID, limit)
}
