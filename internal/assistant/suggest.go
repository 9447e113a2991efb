package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/metrics"
)

// DefaultSuggestionPrompt is used when the reader gives no prompt.
const DefaultSuggestionPrompt = "any good book"

const suggestionTemplate = `You are a friendly and knowledgeable librarian assistant for our digital library.
Your task is to recommend ONE book from the list of available books provided below, based on the user's request.
You must only suggest books that are on the list.

IMPORTANT: You must respond with only a valid JSON object and nothing else. Do not wrap the JSON in markdown backticks or any other text.
The JSON object must have two keys:
- "suggestion": A conversational and friendly suggestion, explaining WHY you are recommending this specific book based on the user's prompt.
- "book": The exact book object {"title", "author", "publishedYear"} that you are recommending.

Here is the list of available books:
---
%s
---

The user's request is: %q
`

// Suggestion is a single recommended book with the model's reasoning.
type Suggestion struct {
	Suggestion string        `json:"suggestion"`
	Book       SuggestedBook `json:"book"`
	Match      *domain.Book  `json:"match,omitempty"`
}

// SuggestedBook is the book as named by the model.
type SuggestedBook struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishedYear int    `json:"publishedYear,omitempty"`
}

// BookLister lists the whole catalog.
type BookLister interface {
	AllBooks(ctx context.Context) ([]domain.Book, error)
}

// Suggester asks the model to pick one book from the catalog.
type Suggester struct {
	gen     Generator
	catalog BookLister
	logger  *slog.Logger
}

// NewSuggester creates a Suggester.
func NewSuggester(gen Generator, catalog BookLister, logger *slog.Logger) *Suggester {
	return &Suggester{gen: gen, catalog: catalog, logger: logger}
}

// Suggest returns one catalog book for prompt. It fails with not found when
// the catalog is empty and with errors.ErrMalformedReply when the model does
// not answer with the expected JSON object.
func (s *Suggester) Suggest(ctx context.Context, prompt string) (*Suggestion, error) {
	books, err := s.catalog.AllBooks(ctx)
	if err != nil {
		metrics.RecordDBError("all_books")
		return nil, domainerrors.Internal("failed to load catalog").WithCause(err)
	}
	if len(books) == 0 {
		return nil, domainerrors.NotFound("No books found in the library to make a suggestion.")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = DefaultSuggestionPrompt
	}

	lines := make([]string, len(books))
	for i, b := range books {
		lines[i] = fmt.Sprintf("Title: %s, Author: %s, Year: %d", b.Title, b.Author, b.PublishedYear)
	}

	reply, err := s.gen.Generate(ctx, GenerateRequest{
		Messages: []Message{{Role: RoleUser, Text: fmt.Sprintf(suggestionTemplate, strings.Join(lines, "\n"), prompt)}},
		JSON:     true,
	})
	if err != nil {
		s.logger.Error("suggestion model call failed", "error", err)
		if domainerrors.Is(err, domainerrors.ErrUpstream) {
			return nil, err
		}
		return nil, domainerrors.Upstream(err)
	}

	text, ok := reply.(TextReply)
	if !ok {
		s.logger.Warn("suggestion reply was not text", "kind", fmt.Sprintf("%T", reply))
		return nil, domainerrors.ErrUnexpectedReply
	}

	var out Suggestion
	if err := json.Unmarshal([]byte(extractJSON(text.Text)), &out); err != nil || out.Book.Title == "" {
		s.logger.Warn("suggestion reply is not the expected json", "error", err)
		return nil, domainerrors.ErrMalformedReply.WithDetails("AI returned an invalid suggestion.")
	}

	// Link the suggestion to the catalog entry when the title matches.
	for i := range books {
		if strings.EqualFold(books[i].Title, strings.TrimSpace(out.Book.Title)) {
			out.Match = &books[i]
			break
		}
	}
	return &out, nil
}

// extractJSON strips markdown code fences and any prose around the outermost
// JSON object.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return strings.TrimSpace(s)
}
