package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
)

func newAssistant(gen Generator, c Catalog) *Assistant {
	return New(Config{Generator: gen, Catalog: c, Logger: discardLogger()})
}

func lastMessage(req GenerateRequest) Message { return req.Messages[len(req.Messages)-1] }

func TestRespond_TextReply(t *testing.T) {
	gen := script(step{reply: TextReply{Text: "Treasure Island is a classic."}})
	a := newAssistant(gen, library())

	resp, err := a.Respond(context.Background(), Request{Prompt: "  pirates?  "})
	require.NoError(t, err)

	assert.Equal(t, "Treasure Island is a classic.", resp.Text)
	assert.Equal(t, []string{"book-3"}, domain.BookIDs(resp.Books))

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	require.Len(t, req.Tools, 1)
	assert.Equal(t, "getBooks", req.Tools[0].Name)
	assert.Len(t, req.Tools[0].Params, 3)
	assert.Equal(t, Message{Role: RoleUser, Text: "pirates?"}, lastMessage(req), "no user context without a profile")
}

func TestRespond_ToolCallFindsTolkien(t *testing.T) {
	gen := script(
		step{reply: ToolCallReply{Call: ToolCall{Name: "getBooks", Args: map[string]any{"author": "Tolkien"}}}},
		step{reply: TextReply{Text: "Yes, I have The Hobbit by J.R.R. Tolkien. The Hobbit is lovely."}},
	)
	cat := library()
	a := newAssistant(gen, cat)

	resp, err := a.Respond(context.Background(), Request{Prompt: "find me something by Tolkien"})
	require.NoError(t, err)

	assert.Contains(t, resp.Text, "The Hobbit")
	require.Len(t, resp.Books, 1, "each book is listed once")
	assert.Equal(t, "book-1", resp.Books[0].ID)

	require.Len(t, cat.lookups, 1)
	assert.Equal(t, "Tolkien", cat.lookups[0].Author)
	assert.Equal(t, 5, cat.lookups[0].Limit)

	require.Len(t, gen.requests, 2)
	second := gen.requests[1]
	require.Len(t, second.Messages, 3)
	assert.Equal(t, RoleModel, second.Messages[1].Role)
	require.NotNil(t, second.Messages[1].ToolCall)
	assert.Equal(t, "getBooks", second.Messages[1].ToolCall.Name)

	result := second.Messages[2].ToolResult
	require.NotNil(t, result)
	assert.Equal(t, "getBooks", result.Name)
	books, ok := result.Payload["books"].([]bookSummary)
	require.True(t, ok)
	require.Len(t, books, 1)
	assert.Equal(t, "The Hobbit", books[0].Title)
	assert.Equal(t, "There and back again.", books[0].Description)
}

func TestRespond_MentionRequiresLiteralTitle(t *testing.T) {
	gen := script(
		step{reply: ToolCallReply{Call: ToolCall{Name: "getBooks", Args: map[string]any{"author": "Tolkien"}}}},
		step{reply: TextReply{Text: "Yes, we have that one on the shelf."}},
	)
	resp, err := newAssistant(gen, library()).Respond(context.Background(), Request{Prompt: "Tolkien?"})
	require.NoError(t, err)
	assert.Empty(t, resp.Books)
}

func TestRespond_MalformedReplies(t *testing.T) {
	tests := []struct {
		name  string
		steps []step
		want  error
	}{
		{
			name:  "neither text nor call",
			steps: []step{{reply: MalformedReply{Reason: ReasonEmpty}}},
			want:  domainerrors.ErrUnexpectedReply,
		},
		{
			name:  "call without args",
			steps: []step{{reply: Classify("", []ToolCall{{Name: "getBooks"}})}},
			want:  domainerrors.ErrMalformedReply,
		},
		{
			name:  "call without name",
			steps: []step{{reply: Classify("", []ToolCall{{Args: map[string]any{}}})}},
			want:  domainerrors.ErrMalformedReply,
		},
		{
			name: "second tool call without text",
			steps: []step{
				{reply: ToolCallReply{Call: ToolCall{Name: "getBooks", Args: map[string]any{}}}},
				{reply: ToolCallReply{Call: ToolCall{Name: "getBooks", Args: map[string]any{"title": "x"}}}},
			},
			want: domainerrors.ErrUnexpectedReply,
		},
		{
			name: "empty final reply",
			steps: []step{
				{reply: ToolCallReply{Call: ToolCall{Name: "getBooks", Args: map[string]any{}}}},
				{reply: MalformedReply{Reason: ReasonEmpty}},
			},
			want: domainerrors.ErrUnexpectedReply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := newAssistant(script(tt.steps...), library()).Respond(context.Background(), Request{Prompt: "hello"})
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRespond_SecondToolCallFallsThroughToText(t *testing.T) {
	gen := script(
		step{reply: ToolCallReply{Call: ToolCall{Name: "getBooks", Args: map[string]any{"category": "science"}}}},
		step{reply: ToolCallReply{Call: ToolCall{Name: "getBooks", Args: map[string]any{}}, Text: "Try Dune."}},
	)
	cat := library()
	resp, err := newAssistant(gen, cat).Respond(context.Background(), Request{Prompt: "sci-fi"})
	require.NoError(t, err)
	assert.Equal(t, "Try Dune.", resp.Text)
	assert.Len(t, cat.lookups, 1, "the second call is not executed")
	assert.Len(t, gen.requests, 2)
}

func TestRespond_UpstreamFailure(t *testing.T) {
	boom := errors.New("quota exceeded")

	_, err := newAssistant(script(step{err: boom}), library()).Respond(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, domainerrors.ErrUpstream)
	assert.ErrorIs(t, err, boom)

	gen := script(
		step{reply: ToolCallReply{Call: ToolCall{Name: "getBooks", Args: map[string]any{}}}},
		step{err: boom},
	)
	_, err = newAssistant(gen, library()).Respond(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, domainerrors.ErrUpstream)
}

func TestRespond_ToolErrorsGoBackToModel(t *testing.T) {
	t.Run("unknown tool", func(t *testing.T) {
		gen := script(
			step{reply: ToolCallReply{Call: ToolCall{Name: "deleteBooks", Args: map[string]any{}}}},
			step{reply: TextReply{Text: "Sorry."}},
		)
		_, err := newAssistant(gen, library()).Respond(context.Background(), Request{Prompt: "hi"})
		require.NoError(t, err)
		result := lastMessage(gen.requests[1]).ToolResult
		require.NotNil(t, result)
		assert.Equal(t, map[string]any{"error": "Tool not found."}, result.Payload)
	})

	t.Run("store failure", func(t *testing.T) {
		cat := library()
		cat.findErr = errors.New("db down")
		gen := script(
			step{reply: ToolCallReply{Call: ToolCall{Name: "getBooks", Args: map[string]any{"title": "dune"}}}},
			step{reply: TextReply{Text: "The catalog is unavailable."}},
		)
		resp, err := newAssistant(gen, cat).Respond(context.Background(), Request{Prompt: "dune"})
		require.NoError(t, err)
		assert.Equal(t, "The catalog is unavailable.", resp.Text)
		result := lastMessage(gen.requests[1]).ToolResult
		assert.Equal(t, map[string]any{"error": "Failed to retrieve books from the database."}, result.Payload)
	})
}

func TestRespond_UserContext(t *testing.T) {
	lib := library()
	profile := &domain.Profile{
		User:      &domain.User{ID: "user-1", Name: "Ada"},
		Favorites: []domain.Book{lib.books[1]},
		History: []domain.ViewEntry{
			{BookID: "book-3", Book: &lib.books[2]},
			{BookID: "book-1", Book: &lib.books[0]},
		},
	}
	gen := script(step{reply: TextReply{Text: "Happy reading."}})

	_, err := newAssistant(gen, lib).Respond(context.Background(), Request{Prompt: "what next?", User: profile})
	require.NoError(t, err)

	sent := lastMessage(gen.requests[0]).Text
	assert.True(t, strings.HasPrefix(sent, "You are a helpful library assistant.\n\n**Crucial Instruction:**"))
	assert.Contains(t, sent, "**User's Favorite Books (Tracked):**\n- Title: Dune, Author: Frank Herbert, Categories: Science Fiction\n")
	assert.Contains(t, sent, "\n**User's Recently Viewed Books:**\n"+
		"- Title: Treasure Island, Author: Robert Louis Stevenson, Categories: Adventure\n"+
		"- Title: The Hobbit, Author: J.R.R. Tolkien, Categories: Fantasy, Adventure\n")
	assert.True(t, strings.HasSuffix(sent, "\n--- END OF USER CONTEXT ---\n\nwhat next?"))
}

func TestRespond_HistoryMappingAndMentions(t *testing.T) {
	history := []domain.Turn{
		{Role: domain.TurnUser, Text: "Do you have Dune Messiah?"},
		{Role: "ai", Text: "We do."},
		{Role: domain.TurnUser, Text: "And Treasure Island?"},
		{Role: domain.TurnAssistant, Text: "Yes."},
		{Role: domain.TurnUser, Text: "Great."},
		{Role: domain.TurnAssistant, Text: ""},
	}
	gen := script(step{reply: TextReply{Text: "Enjoy The Hobbit too."}})

	resp, err := newAssistant(gen, library()).Respond(context.Background(), Request{Prompt: "thanks", History: history})
	require.NoError(t, err)

	msgs := gen.requests[0].Messages
	require.Len(t, msgs, 6, "empty turns are dropped, prompt appended")
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, RoleModel, msgs[1].Role)
	assert.Equal(t, RoleModel, msgs[3].Role)

	// Only the last four turns are scanned: "Dune Messiah" is out of range.
	assert.Equal(t, []string{"book-1", "book-3"}, domain.BookIDs(resp.Books))
}

func TestRespond_Validation(t *testing.T) {
	_, err := newAssistant(script(), library()).Respond(context.Background(), Request{Prompt: "   "})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestRespond_CatalogFailureDuringMentions(t *testing.T) {
	cat := library()
	cat.allErr = errors.New("db down")
	_, err := newAssistant(script(step{reply: TextReply{Text: "ok"}}), cat).Respond(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, domainerrors.ErrInternal)
}

func TestClassify(t *testing.T) {
	call := ToolCall{Name: "getBooks", Args: map[string]any{"title": "x"}}

	assert.Equal(t, TextReply{Text: "hi"}, Classify("hi", nil))
	assert.Equal(t, ToolCallReply{Call: call, Text: "one moment"}, Classify("one moment", []ToolCall{call, {Name: "other"}}))
	assert.Equal(t, MalformedReply{Reason: ReasonEmpty}, Classify("", nil))
	assert.Equal(t, MalformedReply{Reason: ReasonBadToolCall}, Classify("hi", []ToolCall{{Name: "getBooks"}}))
}
