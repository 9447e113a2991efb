package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwise/shelfwise-server/internal/domain"
)

func (s *Server) registerMeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listFavorites",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/favorites",
		Summary:     "List favorites",
		Description: "Returns the caller's favorite books",
		Tags:        []string{"Me"},
		Security:    bearer,
	}, s.handleListFavorites)

	huma.Register(s.api, huma.Operation{
		OperationID: "addFavorite",
		Method:      http.MethodPost,
		Path:        "/api/v1/me/favorites/{bookId}",
		Summary:     "Add favorite",
		Description: "Adds a book to the caller's favorites",
		Tags:        []string{"Me"},
		Security:    bearer,
	}, s.handleAddFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFavorite",
		Method:      http.MethodDelete,
		Path:        "/api/v1/me/favorites/{bookId}",
		Summary:     "Remove favorite",
		Description: "Removes a book from the caller's favorites",
		Tags:        []string{"Me"},
		Security:    bearer,
	}, s.handleRemoveFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "listHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/history",
		Summary:     "View history",
		Description: "Returns the caller's recently viewed books, most recent first",
		Tags:        []string{"Me"},
		Security:    bearer,
	}, s.handleListHistory)

	huma.Register(s.api, huma.Operation{
		OperationID: "recordView",
		Method:      http.MethodPost,
		Path:        "/api/v1/me/history/{bookId}",
		Summary:     "Record view",
		Description: "Moves a book to the front of the caller's view history",
		Tags:        []string{"Me"},
		Security:    bearer,
	}, s.handleRecordView)
}

// FavoriteInput identifies a book by path.
type FavoriteInput struct {
	BookID string `path:"bookId" doc:"Book ID"`
}

// BooksResponse lists books.
type BooksResponse struct {
	Books []domain.Book `json:"books" doc:"Books"`
}

// BooksOutput wraps a list of books for Huma.
type BooksOutput struct {
	Body BooksResponse
}

// HistoryInput contains parameters for listing history.
type HistoryInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"50" doc:"Maximum entries (default 50)"`
}

// HistoryResponse lists history entries.
type HistoryResponse struct {
	History []domain.ViewEntry `json:"history" doc:"Views, most recent first"`
}

// HistoryOutput wraps history for Huma.
type HistoryOutput struct {
	Body HistoryResponse
}

func booksOutput(books []domain.Book) *BooksOutput {
	if books == nil {
		books = []domain.Book{}
	}
	return &BooksOutput{Body: BooksResponse{Books: books}}
}

func (s *Server) handleListFavorites(ctx context.Context, _ *struct{}) (*BooksOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	books, err := s.services.User.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	return booksOutput(books), nil
}

func (s *Server) handleAddFavorite(ctx context.Context, input *FavoriteInput) (*BooksOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	books, err := s.services.User.AddFavorite(ctx, userID, input.BookID)
	if err != nil {
		return nil, err
	}
	return booksOutput(books), nil
}

func (s *Server) handleRemoveFavorite(ctx context.Context, input *FavoriteInput) (*BooksOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	books, err := s.services.User.RemoveFavorite(ctx, userID, input.BookID)
	if err != nil {
		return nil, err
	}
	return booksOutput(books), nil
}

func (s *Server) handleListHistory(ctx context.Context, input *HistoryInput) (*HistoryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.services.User.ListHistory(ctx, userID, input.Limit)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []domain.ViewEntry{}
	}
	return &HistoryOutput{Body: HistoryResponse{History: history}}, nil
}

func (s *Server) handleRecordView(ctx context.Context, input *FavoriteInput) (*EmptyOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.User.RecordView(ctx, userID, input.BookID); err != nil {
		return nil, err
	}
	return &EmptyOutput{Body: emptyResponse{OK: true}}, nil
}
