package models

import "strings"

// ChatRole marks who authored a chat turn.
type ChatRole int

const (
	RoleUser ChatRole = iota
	RoleAssistant
)

func (r ChatRole) String() string {
	if r == RoleUser {
		return "User"
	}
	return "Assistant"
}

// ChatTurn is one normalized message of a conversation.
type ChatTurn struct {
	Role    ChatRole
	Content string
}

// ChatTurnInput is a history entry as the front-end sends it.
// Older clients send "role" instead of "type".
type ChatTurnInput struct {
	Type    string `json:"type"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

// ChatRequest is the payload sent to POST /api/chat.
type ChatRequest struct {
	Query       string          `json:"query"`
	ChatHistory []ChatTurnInput `json:"chatHistory"`
}

// ChatResponse is the answer returned by POST /api/chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// Normalize converts a wire entry into a ChatTurn. Only "user" marks a
// user-originated turn; "assistant", "bot", "error" and unknown values
// all count as assistant output.
func (in ChatTurnInput) Normalize() ChatTurn {
	kind := in.Type
	if strings.TrimSpace(kind) == "" {
		kind = in.Role
	}

	role := RoleAssistant
	if strings.EqualFold(strings.TrimSpace(kind), "user") {
		role = RoleUser
	}

	return ChatTurn{Role: role, Content: in.Content}
}

// NormalizeHistory normalizes a whole history, preserving order.
func NormalizeHistory(inputs []ChatTurnInput) []ChatTurn {
	if len(inputs) == 0 {
		return nil
	}
	turns := make([]ChatTurn, len(inputs))
	for i, in := range inputs {
		turns[i] = in.Normalize()
	}
	return turns
}
