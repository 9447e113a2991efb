package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/search"
	"github.com/shelfwise/shelfwise-server/internal/service"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Pages through the catalog newest first, optionally filtered by title/author text or category",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/search",
		Summary:     "Search books",
		Description: "Full-text search over titles, authors, categories and descriptions",
		Tags:        []string{"Books"},
	}, s.handleSearchBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book. Signed-in readers have the view added to their history.",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Create book",
		Description:   "Adds a book to the catalog",
		Tags:          []string{"Books"},
		Security:      bearer,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Replaces a book's editable fields",
		Tags:        []string{"Books"},
		Security:    bearer,
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Removes a book with its reviews, favorites and views",
		Tags:        []string{"Books"},
		Security:    bearer,
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "List categories",
		Description: "Returns the distinct categories in the catalog, sorted",
		Tags:        []string{"Books"},
	}, s.handleListCategories)
}

// === DTOs ===

// ListBooksInput contains parameters for listing books.
type ListBooksInput struct {
	Query    string `query:"q" doc:"Matches title or author"`
	Category string `query:"category" doc:"Restrict to a category"`
	Limit    int    `query:"limit" minimum:"0" maximum:"100" doc:"Items per page (default 20)"`
	Cursor   string `query:"cursor" doc:"Cursor from a previous page"`
}

// ListBooksOutput wraps a page of books for Huma.
type ListBooksOutput struct {
	Body store.Page[domain.Book]
}

// SearchBooksInput contains search parameters.
type SearchBooksInput struct {
	Query         string `query:"q" doc:"Search text"`
	Category      string `query:"category" doc:"Restrict to a category"`
	AvailableOnly bool   `query:"available" doc:"Only books that can be borrowed"`
	Limit         int    `query:"limit" minimum:"0" maximum:"100" doc:"Maximum results (default 20)"`
	Offset        int    `query:"offset" minimum:"0" doc:"Results to skip"`
}

// SearchBooksOutput wraps search results for Huma.
type SearchBooksOutput struct {
	Body *service.SearchResult
}

// BookIDInput identifies a book by path.
type BookIDInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// BookOutput wraps a book for Huma.
type BookOutput struct {
	Body *domain.Book
}

// CreateBookInput wraps the create book request for Huma.
type CreateBookInput struct {
	Body service.BookInput
}

// UpdateBookInput wraps the update book request for Huma.
type UpdateBookInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body service.BookInput
}

// CategoriesResponse lists categories.
type CategoriesResponse struct {
	Categories []string `json:"categories" doc:"Distinct categories"`
}

// CategoriesOutput wraps categories for Huma.
type CategoriesOutput struct {
	Body CategoriesResponse
}

// EmptyOutput is returned by operations with no data.
type EmptyOutput struct {
	Body emptyResponse
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	page, err := s.services.Book.ListBooks(ctx, store.BookFilter{
		Query:    input.Query,
		Category: input.Category,
		PaginationParams: store.PaginationParams{
			Limit:  input.Limit,
			Cursor: input.Cursor,
		},
	})
	if err != nil {
		return nil, err
	}
	return &ListBooksOutput{Body: page}, nil
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*SearchBooksOutput, error) {
	result, err := s.services.Book.Search(ctx, search.Params{
		Query:         input.Query,
		Category:      input.Category,
		AvailableOnly: input.AvailableOnly,
		Limit:         input.Limit,
		Offset:        input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SearchBooksOutput{Body: result}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	book, err := s.services.Book.GetBook(ctx, input.ID, optionalUserID(ctx))
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	book, err := s.services.Book.CreateBook(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	book, err := s.services.Book.UpdateBook(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*EmptyOutput, error) {
	if err := s.services.Book.DeleteBook(ctx, input.ID); err != nil {
		return nil, err
	}
	return &EmptyOutput{Body: emptyResponse{OK: true}}, nil
}

func (s *Server) handleListCategories(ctx context.Context, _ *struct{}) (*CategoriesOutput, error) {
	categories, err := s.services.Book.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return &CategoriesOutput{Body: CategoriesResponse{Categories: categories}}, nil
}
