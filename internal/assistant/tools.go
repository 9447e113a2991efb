package assistant

import (
	"context"
	"strings"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/metrics"
	"github.com/shelfwise/shelfwise-server/internal/store"
	"github.com/shelfwise/shelfwise-server/internal/textutil"
)

const (
	toolGetBooks = "getBooks"

	lookupLimit    = 5
	snippetLength  = 200
	errToolUnknown = "Tool not found."
	errToolStore   = "Failed to retrieve books from the database."
)

var getBooksTool = ToolDeclaration{
	Name:        toolGetBooks,
	Description: "Get a list of books from the library based on title, author, or category.",
	Params: []ToolParam{
		{Name: "title", Description: "The title of the book to search for (partial matches allowed)."},
		{Name: "author", Description: "The author of the book to search for (partial matches allowed)."},
		{Name: "category", Description: "The category of the book to search for (e.g., Adventure, Fiction)."},
	},
}

// bookSummary is the subset of a book handed to the model.
type bookSummary struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Categories  []string `json:"categories"`
	Description string   `json:"description,omitempty"`
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

// runTool executes call against the catalog. Failures become an error
// payload for the model rather than an error for the caller.
func (a *Assistant) runTool(ctx context.Context, call ToolCall) ToolResult {
	if call.Name != toolGetBooks {
		a.logger.Warn("model requested unknown tool", "tool", call.Name)
		metrics.AssistantToolCalls.WithLabelValues(call.Name, "unknown").Inc()
		return ToolResult{Name: call.Name, Payload: map[string]any{"error": errToolUnknown}}
	}

	filter := store.LookupFilter{
		Title:    stringArg(call.Args, "title"),
		Author:   stringArg(call.Args, "author"),
		Category: stringArg(call.Args, "category"),
		Limit:    lookupLimit,
	}
	books, err := a.catalog.FindBooks(ctx, filter)
	if err != nil {
		a.logger.Error("catalog lookup failed", "error", err, "title", filter.Title, "author", filter.Author, "category", filter.Category)
		metrics.AssistantToolCalls.WithLabelValues(call.Name, "error").Inc()
		return ToolResult{Name: call.Name, Payload: map[string]any{"error": errToolStore}}
	}

	result := "ok"
	if len(books) == 0 {
		result = "empty"
	}
	metrics.AssistantToolCalls.WithLabelValues(call.Name, result).Inc()
	a.logger.Debug("catalog lookup", "title", filter.Title, "author", filter.Author, "category", filter.Category, "matches", len(books))

	return ToolResult{Name: call.Name, Payload: map[string]any{"books": summarize(books)}}
}

func summarize(books []domain.Book) []bookSummary {
	out := make([]bookSummary, len(books))
	for i, b := range books {
		out[i] = bookSummary{
			Title:       b.Title,
			Author:      b.Author,
			Categories:  b.Categories,
			Description: textutil.Snippet(b.Description, snippetLength),
		}
	}
	return out
}
