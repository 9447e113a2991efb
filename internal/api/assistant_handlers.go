package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwise/shelfwise-server/internal/assistant"
	"github.com/shelfwise/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/logger"
)

var errAssistantDisabled = errors.New("no generative model configured")

func (s *Server) registerRecommendationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getRecommendations",
		Method:      http.MethodGet,
		Path:        "/api/v1/recommendations",
		Summary:     "Recommendations",
		Description: "Returns unseen books from the categories the caller has viewed, padded with the newest arrivals",
		Tags:        []string{"Recommendations"},
		Security:    bearer,
	}, s.handleGetRecommendations)
}

func (s *Server) registerAssistantRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "chat",
		Method:      http.MethodPost,
		Path:        "/api/v1/chat",
		Summary:     "Chat with the librarian",
		Description: "Answers a catalog question. Signed-in readers get answers informed by their favorites and recent views.",
		Tags:        []string{"Assistant"},
	}, s.handleChat)

	huma.Register(s.api, huma.Operation{
		OperationID: "suggestBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/ai/suggest",
		Summary:     "Suggest a book",
		Description: "Asks the model to pick one catalog book for a prompt",
		Tags:        []string{"Assistant"},
		Security:    bearer,
	}, s.handleSuggest)
}

// ChatRequest is a reader's message plus the conversation so far.
type ChatRequest struct {
	Prompt  string        `json:"prompt" minLength:"1" maxLength:"4000" doc:"The reader's message"`
	History []domain.Turn `json:"history,omitempty" maxItems:"100" doc:"Earlier turns, oldest first"`
}

// ChatInput wraps the chat request for Huma.
type ChatInput struct {
	Body ChatRequest
}

// ChatOutput wraps the assistant response for Huma.
type ChatOutput struct {
	Body *assistant.Response
}

// SuggestRequest is an optional free-text wish.
type SuggestRequest struct {
	Prompt string `json:"prompt,omitempty" maxLength:"1000" doc:"What the reader is in the mood for"`
}

// SuggestInput wraps the suggestion request for Huma.
type SuggestInput struct {
	Body SuggestRequest `required:"false"`
}

// SuggestOutput wraps the suggestion for Huma.
type SuggestOutput struct {
	Body *assistant.Suggestion
}

func (s *Server) handleGetRecommendations(ctx context.Context, _ *struct{}) (*BooksOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	books, err := s.services.Recommend.Recommend(ctx, userID)
	if err != nil {
		return nil, err
	}
	return booksOutput(books), nil
}

func (s *Server) handleChat(ctx context.Context, input *ChatInput) (*ChatOutput, error) {
	if s.services.Assistant == nil {
		return nil, domainerrors.Upstream(errAssistantDisabled)
	}

	req := assistant.Request{Prompt: input.Body.Prompt, History: input.Body.History}
	if userID := optionalUserID(ctx); userID != "" {
		profile, err := s.services.User.GetProfile(ctx, userID)
		if err != nil {
			// Answer without personal context rather than fail the chat.
			logger.FromContext(ctx, s.logger).Warn("failed to load profile for chat", logger.KeyUserID, userID, "error", err)
		} else {
			req.User = profile
		}
	}

	resp, err := s.services.Assistant.Respond(ctx, req)
	if err != nil {
		return nil, err
	}
	return &ChatOutput{Body: resp}, nil
}

func (s *Server) handleSuggest(ctx context.Context, input *SuggestInput) (*SuggestOutput, error) {
	if s.services.Suggester == nil {
		return nil, domainerrors.Upstream(errAssistantDisabled)
	}
	suggestion, err := s.services.Suggester.Suggest(ctx, input.Body.Prompt)
	if err != nil {
		return nil, err
	}
	return &SuggestOutput{Body: suggestion}, nil
}
