package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/service"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/reviews",
		Summary:     "List reviews",
		Description: "Returns the reviews of a book, newest first",
		Tags:        []string{"Reviews"},
	}, s.handleListReviews)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createReview",
		Method:        http.MethodPost,
		Path:          "/api/v1/books/{id}/reviews",
		Summary:       "Review a book",
		Description:   "Adds the caller's review and updates the book rating. A reader reviews a book once.",
		Tags:          []string{"Reviews"},
		Security:      bearer,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteReview",
		Method:      http.MethodDelete,
		Path:        "/api/v1/reviews/{id}",
		Summary:     "Delete review",
		Description: "Removes a review and updates the book rating",
		Tags:        []string{"Reviews"},
		Security:    bearer,
	}, s.handleDeleteReview)
}

// CreateReviewInput wraps the review request for Huma.
type CreateReviewInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body service.ReviewInput
}

// ReviewOutput wraps a review for Huma.
type ReviewOutput struct {
	Body *domain.Review
}

// ReviewsResponse lists reviews.
type ReviewsResponse struct {
	Reviews []domain.Review `json:"reviews" doc:"Reviews, newest first"`
}

// ReviewsOutput wraps reviews for Huma.
type ReviewsOutput struct {
	Body ReviewsResponse
}

// ReviewIDInput identifies a review by path.
type ReviewIDInput struct {
	ID string `path:"id" doc:"Review ID"`
}

func (s *Server) handleListReviews(ctx context.Context, input *BookIDInput) (*ReviewsOutput, error) {
	reviews, err := s.services.Review.ListReviews(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return &ReviewsOutput{Body: ReviewsResponse{Reviews: reviews}}, nil
}

func (s *Server) handleCreateReview(ctx context.Context, input *CreateReviewInput) (*ReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	review, err := s.services.Review.CreateReview(ctx, userID, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: review}, nil
}

func (s *Server) handleDeleteReview(ctx context.Context, input *ReviewIDInput) (*EmptyOutput, error) {
	if err := s.services.Review.DeleteReview(ctx, input.ID); err != nil {
		return nil, err
	}
	return &EmptyOutput{Body: emptyResponse{OK: true}}, nil
}
