package assistant

import "context"

// Role is the speaker of a model message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ToolCall is a structured invocation requested by the model.
type ToolCall struct {
	Name string
	Args map[string]any
}

// ToolResult is the payload returned to the model for a ToolCall.
type ToolResult struct {
	Name    string
	Payload map[string]any
}

// Message is one turn sent to the model. Exactly one of Text, ToolCall and
// ToolResult is set.
type Message struct {
	Role       Role
	Text       string
	ToolCall   *ToolCall
	ToolResult *ToolResult
}

// ToolParam is a string parameter of a declared tool. All parameters are
// optional.
type ToolParam struct {
	Name        string
	Description string
}

// ToolDeclaration describes a function the model may call.
type ToolDeclaration struct {
	Name        string
	Description string
	Params      []ToolParam
}

// GenerateRequest is a single call to the generative model.
type GenerateRequest struct {
	Messages []Message
	Tools    []ToolDeclaration
	// JSON asks the model to answer with a JSON document only.
	JSON bool
}

// ModelReply is the classified reply of one generation: a TextReply, a
// ToolCallReply or a MalformedReply.
type ModelReply interface {
	modelReply()
}

// TextReply is a plain text answer.
type TextReply struct {
	Text string
}

// ToolCallReply asks the caller to run a tool. Text holds any prose the
// model sent alongside the call.
type ToolCallReply struct {
	Call ToolCall
	Text string
}

// MalformedReason says why a reply could not be used.
type MalformedReason int

const (
	// ReasonBadToolCall is a tool call without a name or arguments.
	ReasonBadToolCall MalformedReason = iota + 1
	// ReasonEmpty is a reply with neither text nor a tool call.
	ReasonEmpty
)

func (r MalformedReason) String() string {
	switch r {
	case ReasonBadToolCall:
		return "bad_tool_call"
	case ReasonEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// MalformedReply is a reply the assistant cannot act on.
type MalformedReply struct {
	Reason MalformedReason
}

func (TextReply) modelReply()      {}
func (ToolCallReply) modelReply()  {}
func (MalformedReply) modelReply() {}

// Generator produces one model reply. A non-nil error means the model
// service itself failed.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (ModelReply, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req GenerateRequest) (ModelReply, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req GenerateRequest) (ModelReply, error) {
	return f(ctx, req)
}

// Classify turns the raw parts of a reply into a ModelReply. Only the first
// tool call is considered.
func Classify(text string, calls []ToolCall) ModelReply {
	if len(calls) > 0 {
		call := calls[0]
		if call.Name == "" || call.Args == nil {
			return MalformedReply{Reason: ReasonBadToolCall}
		}
		return ToolCallReply{Call: call, Text: text}
	}
	if text != "" {
		return TextReply{Text: text}
	}
	return MalformedReply{Reason: ReasonEmpty}
}
