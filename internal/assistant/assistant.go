// Package assistant answers catalog questions with a generative model that
// may look books up through a single tool, and recovers which books the
// answer mentions.
package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/metrics"
	"github.com/shelfwise/shelfwise-server/internal/store"
)

// Catalog is the slice of the record store the assistant reads.
type Catalog interface {
	FindBooks(ctx context.Context, f store.LookupFilter) ([]domain.Book, error)
	AllBooks(ctx context.Context) ([]domain.Book, error)
}

// Config wires an Assistant.
type Config struct {
	Generator Generator
	Catalog   Catalog
	Logger    *slog.Logger
}

// Assistant runs one conversational search per Respond call. It keeps no
// state between calls.
type Assistant struct {
	gen     Generator
	catalog Catalog
	logger  *slog.Logger
}

// New creates an Assistant.
func New(cfg Config) *Assistant {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{gen: cfg.Generator, catalog: cfg.Catalog, logger: logger}
}

// Request is a chat message from a reader.
type Request struct {
	Prompt  string
	History []domain.Turn
	// User, when set, adds the reader's favorites and recent views to the
	// prompt.
	User *domain.Profile
}

// Response is the assistant's answer and the catalog books it mentions.
type Response struct {
	Text  string        `json:"text"`
	Books []domain.Book `json:"books"`
}

// Respond answers req. The model may request one catalog lookup; its
// result is sent back for a final answer. A second lookup request is not
// run: any text sent with it is used as the answer.
//
// Errors: errors.ErrUpstream when the model service fails,
// errors.ErrMalformedReply for a tool call missing its name or arguments,
// and errors.ErrUnexpectedReply for a reply with neither text nor a call.
func (a *Assistant) Respond(ctx context.Context, req Request) (*Response, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, domainerrors.Validation("prompt is required")
	}

	messages := historyMessages(req.History)
	messages = append(messages, Message{Role: RoleUser, Text: finalPrompt(userContext(req.User), prompt)})
	genReq := GenerateRequest{Messages: messages, Tools: []ToolDeclaration{getBooksTool}}

	reply, err := a.gen.Generate(ctx, genReq)
	if err != nil {
		return nil, a.upstream(err)
	}

	var text string
	switch r := reply.(type) {
	case TextReply:
		text = r.Text
		metrics.AssistantReplies.WithLabelValues("text").Inc()

	case ToolCallReply:
		result := a.runTool(ctx, r.Call)
		genReq.Messages = append(genReq.Messages,
			Message{Role: RoleModel, ToolCall: &r.Call},
			Message{Role: RoleUser, ToolResult: &result},
		)

		final, err := a.gen.Generate(ctx, genReq)
		if err != nil {
			return nil, a.upstream(err)
		}
		switch f := final.(type) {
		case TextReply:
			text = f.Text
		case ToolCallReply:
			if f.Text == "" {
				a.logger.Warn("model requested a second tool call without text", "tool", f.Call.Name)
				return nil, a.malformed(ReasonEmpty)
			}
			a.logger.Debug("ignoring second tool call", "tool", f.Call.Name)
			text = f.Text
		case MalformedReply:
			return nil, a.malformed(f.Reason)
		}
		metrics.AssistantReplies.WithLabelValues("tool").Inc()

	case MalformedReply:
		return nil, a.malformed(r.Reason)
	}

	books, err := a.mentions(ctx, text, req.History)
	if err != nil {
		return nil, err
	}
	return &Response{Text: text, Books: books}, nil
}

func (a *Assistant) mentions(ctx context.Context, text string, history []domain.Turn) ([]domain.Book, error) {
	all, err := a.catalog.AllBooks(ctx)
	if err != nil {
		metrics.RecordDBError("all_books")
		return nil, domainerrors.Internal("failed to load catalog").WithCause(err)
	}
	return findMentions(mentionText(text, history), all), nil
}

func (a *Assistant) upstream(err error) error {
	metrics.AssistantReplies.WithLabelValues("upstream").Inc()
	a.logger.Error("model call failed", "error", err)
	if domainerrors.Is(err, domainerrors.ErrUpstream) {
		return err
	}
	return domainerrors.Upstream(err)
}

func (a *Assistant) malformed(reason MalformedReason) error {
	a.logger.Warn("model reply rejected", "reason", reason.String())
	if reason == ReasonBadToolCall {
		metrics.AssistantReplies.WithLabelValues("malformed").Inc()
		return domainerrors.ErrMalformedReply
	}
	metrics.AssistantReplies.WithLabelValues("unexpected").Inc()
	return domainerrors.ErrUnexpectedReply
}
