package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/shelfwise/shelfwise-server/internal/metrics"
)

// DefaultModel is used when GeminiConfig.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini generator.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	// Timeout bounds a single generation. Zero leaves it to the caller.
	Timeout time.Duration
}

// GeminiGenerator is a Generator backed by the Gemini API.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	logger      *slog.Logger
}

// ErrNoAPIKey is returned when no Gemini API key is configured.
var ErrNoAPIKey = errors.New("gemini API key is required")

// NewGeminiGenerator creates a client for cfg.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiGenerator{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger,
	}, nil
}

// Model returns the model name.
func (g *GeminiGenerator) Model() string { return g.model }

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (ModelReply, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	temperature := g.temperature
	config := &genai.GenerateContentConfig{
		Temperature: &temperature,
		Tools:       toGenaiTools(req.Tools),
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, toGenaiContents(req.Messages), config)
	metrics.RecordModelCall(g.model, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	reply := classifyResponse(resp)
	g.logger.Debug("model reply", "model", g.model, "kind", fmt.Sprintf("%T", reply), "duration", time.Since(start))
	return reply, nil
}

func toGenaiTools(tools []ToolDeclaration) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]*genai.Schema, len(t.Params))
		for _, p := range t.Params {
			props[p.Name] = &genai.Schema{Type: genai.TypeString, Description: p.Description}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
			},
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func toGenaiContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == RoleModel {
			role = genai.RoleModel
		}

		var part *genai.Part
		switch {
		case m.ToolCall != nil:
			part = &genai.Part{FunctionCall: &genai.FunctionCall{Name: m.ToolCall.Name, Args: m.ToolCall.Args}}
		case m.ToolResult != nil:
			part = &genai.Part{FunctionResponse: &genai.FunctionResponse{Name: m.ToolResult.Name, Response: m.ToolResult.Payload}}
		case m.Text != "":
			part = genai.NewPartFromText(m.Text)
		default:
			continue
		}
		contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.Role(role)))
	}
	return contents
}

// classifyResponse reads the first candidate. Thought parts are skipped.
func classifyResponse(resp *genai.GenerateContentResponse) ModelReply {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return MalformedReply{Reason: ReasonEmpty}
	}

	var (
		text  strings.Builder
		calls []ToolCall
	)
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		if p.FunctionCall != nil {
			calls = append(calls, ToolCall{Name: p.FunctionCall.Name, Args: p.FunctionCall.Args})
			continue
		}
		text.WriteString(p.Text)
	}
	return Classify(strings.TrimSpace(text.String()), calls)
}
