// Package service holds the library's use cases: accounts, the catalog,
// reading activity, reviews, and the admin dashboard.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/id"
	"github.com/shelfwise/shelfwise-server/internal/search"
	"github.com/shelfwise/shelfwise-server/internal/store"
	"github.com/shelfwise/shelfwise-server/internal/store/sqlite"
	"github.com/shelfwise/shelfwise-server/internal/validation"
)

// BookService manages the catalog and its search index.
type BookService struct {
	store     *sqlite.Store
	index     *search.Index
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewBookService creates a new book service. The store is expected to keep
// index current on writes; the service only reads from it.
func NewBookService(store *sqlite.Store, index *search.Index, logger *slog.Logger) *BookService {
	return &BookService{
		store:     store,
		index:     index,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// BookInput is the editable part of a book.
type BookInput struct {
	Title         string   `json:"title" validate:"required,notblank,max=300"`
	Author        string   `json:"author" validate:"required,notblank,max=200"`
	PublishedYear int      `json:"published_year,omitempty" validate:"pubyear"`
	Categories    []string `json:"categories,omitempty" validate:"max=20,dive,category"`
	Available     *bool    `json:"available,omitempty"`
	ImageURL      string   `json:"image_url,omitempty" validate:"omitempty,url,max=2048"`
	Description   string   `json:"description,omitempty" validate:"max=20000"`
}

func (in BookInput) apply(b *domain.Book) {
	b.Title = strings.TrimSpace(in.Title)
	b.Author = strings.TrimSpace(in.Author)
	b.PublishedYear = in.PublishedYear
	b.Categories = domain.NormalizeCategories(in.Categories)
	b.Available = in.Available == nil || *in.Available
	b.ImageURL = strings.TrimSpace(in.ImageURL)
	b.Description = in.Description
}

// ListBooks pages through the catalog newest first.
func (s *BookService) ListBooks(ctx context.Context, filter store.BookFilter) (store.Page[domain.Book], error) {
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Category = strings.TrimSpace(filter.Category)
	return s.store.ListBooks(ctx, filter)
}

// GetBook returns a book. A non-empty viewerID records the view in that
// user's history; failing to record it does not fail the read.
func (s *BookService) GetBook(ctx context.Context, bookID, viewerID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if viewerID != "" {
		if err := s.store.RecordView(ctx, viewerID, bookID, s.now()); err != nil {
			s.logger.Warn("failed to record view", "user_id", viewerID, "book_id", bookID, "error", err)
		}
	}
	return book, nil
}

// CreateBook adds a book to the catalog.
func (s *BookService) CreateBook(ctx context.Context, in BookInput) (*domain.Book, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	now := s.now()
	book := &domain.Book{
		ID:        id.MustGenerate(id.PrefixBook),
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(book)

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	s.logger.Info("book created", "book_id", book.ID, "title", book.Title)
	return book, nil
}

// UpdateBook replaces a book's editable fields.
func (s *BookService) UpdateBook(ctx context.Context, bookID string, in BookInput) (*domain.Book, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	in.apply(book)
	book.UpdatedAt = s.now()

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteBook removes a book along with the favorites, views, and reviews
// that reference it.
func (s *BookService) DeleteBook(ctx context.Context, bookID string) error {
	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return err
	}
	s.logger.Info("book deleted", "book_id", bookID)
	return nil
}

// SearchResult is a ranked page of full-text matches.
type SearchResult struct {
	Query string        `json:"query"`
	Total uint64        `json:"total"`
	Books []domain.Book `json:"books"`
}

// Search runs a full-text query over titles, authors, categories, and
// descriptions. No match is a not found error.
func (s *BookService) Search(ctx context.Context, params search.Params) (*SearchResult, error) {
	params.Query = strings.TrimSpace(params.Query)
	if params.Query == "" {
		return nil, domainerrors.Validation("Search query is required")
	}

	res, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, domainerrors.Internal("search failed").WithCause(err)
	}

	books, err := s.store.GetBooks(ctx, res.IDs())
	if err != nil {
		return nil, fmt.Errorf("load search hits: %w", err)
	}
	if len(books) == 0 {
		return nil, domainerrors.NotFound("No books found matching your query.")
	}
	return &SearchResult{Query: params.Query, Total: res.Total, Books: books}, nil
}

// ListCategories returns the distinct categories in the catalog, sorted.
func (s *BookService) ListCategories(ctx context.Context) ([]string, error) {
	return s.store.ListCategories(ctx)
}

// ReindexAll rebuilds the search index from the store.
func (s *BookService) ReindexAll(ctx context.Context) (int, error) {
	books, err := s.store.AllBooks(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.index.Rebuild(books); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	return len(books), nil
}
