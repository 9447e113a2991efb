// Package recommend picks unseen books for a reader from the categories of
// the books they have viewed, padded with the newest arrivals.
package recommend

import (
	"context"
	"log/slog"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/metrics"
	"github.com/shelfwise/shelfwise-server/internal/store"
	"github.com/shelfwise/shelfwise-server/internal/textutil"
)

// DefaultPageSize is the number of books returned per recommendation.
const DefaultPageSize = 10

// Catalog is the slice of the record store the engine reads.
type Catalog interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	// NewestBooks returns books newest first, ties broken by most recent
	// insertion, skipping exclude.
	NewestBooks(ctx context.Context, limit int, exclude []string) ([]domain.Book, error)
	// BooksInCategories returns books sharing at least one category with
	// categories, skipping exclude.
	BooksInCategories(ctx context.Context, categories, exclude []string, limit int) ([]domain.Book, error)
}

// Engine produces recommendations.
type Engine struct {
	catalog  Catalog
	pageSize int
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPageSize overrides DefaultPageSize.
func WithPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// NewEngine creates an engine reading from catalog.
func NewEngine(catalog Catalog, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{catalog: catalog, pageSize: DefaultPageSize, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PageSize returns the maximum number of books Recommend returns.
func (e *Engine) PageSize() int { return e.pageSize }

// Recommend loads the user's profile and returns up to PageSize unseen
// books. Unknown users yield a not found error.
func (e *Engine) Recommend(ctx context.Context, userID string) ([]domain.Book, error) {
	profile, err := e.catalog.GetProfile(ctx, userID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		metrics.RecordDBError("get_profile")
		return nil, domainerrors.Internal("failed to load user profile").WithCause(err)
	}
	return e.ForProfile(ctx, profile)
}

// ForProfile returns up to PageSize books for profile.
//
// Books in a category the reader has viewed come first, in catalog order.
// The remainder is filled with the newest books not already chosen. A
// reader with no viewed categories gets the newest books. Books in the
// reader's history or favorites are never returned.
func (e *Engine) ForProfile(ctx context.Context, profile *domain.Profile) ([]domain.Book, error) {
	seen := seenIDs(profile)
	preferred := dedupeCategories(profile.ViewedCategories())

	if len(preferred) == 0 {
		books, err := e.catalog.NewestBooks(ctx, e.pageSize, seen)
		if err != nil {
			metrics.RecordDBError("newest_books")
			return nil, domainerrors.Internal("failed to load recommendations").WithCause(err)
		}
		metrics.RecordRecommendations(metrics.PathColdStart, len(books))
		e.logger.Debug("cold start recommendations", "user_id", profile.User.ID, "count", len(books))
		return books, nil
	}

	matches, err := e.catalog.BooksInCategories(ctx, preferred, seen, e.pageSize)
	if err != nil {
		metrics.RecordDBError("books_in_categories")
		return nil, domainerrors.Internal("failed to load recommendations").WithCause(err)
	}
	metrics.RecordRecommendations(metrics.PathCategory, len(matches))

	out := matches
	if missing := e.pageSize - len(matches); missing > 0 {
		exclude := append(seen, domain.BookIDs(matches)...)
		backfill, err := e.catalog.NewestBooks(ctx, missing, exclude)
		if err != nil {
			metrics.RecordDBError("newest_books")
			return nil, domainerrors.Internal("failed to load recommendations").WithCause(err)
		}
		metrics.RecordRecommendations(metrics.PathBackfill, len(backfill))
		out = append(out, backfill...)
	}

	e.logger.Debug("recommendations",
		"user_id", profile.User.ID,
		"categories", len(preferred),
		"matches", len(matches),
		"total", len(out),
	)
	return out, nil
}

func seenIDs(p *domain.Profile) []string {
	set := p.SeenSet()
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// dedupeCategories collapses case and spacing variants, keeping the first
// spelling seen.
func dedupeCategories(categories []string) []string {
	out := make([]string, 0, len(categories))
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		key := textutil.Fold(c)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
