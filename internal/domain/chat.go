package domain

// TurnRole identifies the speaker of a conversation turn.
type TurnRole string

const (
	TurnUser      TurnRole = "user"
	TurnAssistant TurnRole = "assistant"
)

// Turn is one message of a chat conversation. Turns are supplied by the
// client on every request and never stored.
type Turn struct {
	Role TurnRole `json:"role"`
	Text string   `json:"text"`
}

// IsAssistant reports whether the turn was produced by the model. Older
// clients label these turns "ai" or "model".
func (t Turn) IsAssistant() bool {
	switch t.Role {
	case TurnAssistant, "ai", "model":
		return true
	}
	return false
}
