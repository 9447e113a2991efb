package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/shelfwise/shelfwise-server/internal/store"
	"github.com/shelfwise/shelfwise-server/internal/store/sqlite"
)

const popularBooksLimit = 5

// DashboardService aggregates catalog statistics for administrators.
type DashboardService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(store *sqlite.Store, logger *slog.Logger) *DashboardService {
	return &DashboardService{store: store, logger: logger}
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalBooks      int                   `json:"total_books"`
	TotalUsers      int                   `json:"total_users"`
	PopularBooks    []store.FavoriteCount `json:"popular_books"`
	BooksByCategory []store.CategoryCount `json:"books_by_category"`
}

// Stats runs the four dashboard queries concurrently. The first failure
// cancels the rest.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.store.CountBooks(gctx)
		if err != nil {
			return fmt.Errorf("count books: %w", err)
		}
		stats.TotalBooks = n
		return nil
	})
	g.Go(func() error {
		n, err := s.store.CountUsers(gctx)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		stats.TotalUsers = n
		return nil
	})
	g.Go(func() error {
		top, err := s.store.TopFavorited(gctx, popularBooksLimit)
		if err != nil {
			return fmt.Errorf("top favorited: %w", err)
		}
		stats.PopularBooks = top
		return nil
	})
	g.Go(func() error {
		counts, err := s.store.CategoryCounts(gctx)
		if err != nil {
			return fmt.Errorf("category counts: %w", err)
		}
		stats.BooksByCategory = counts
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard stats failed", "error", err)
		return nil, err
	}
	return &stats, nil
}
