// Package llm wraps the chat-completion provider behind a small contract.
// The model is a black box: callers get raw text back and must tolerate
// whatever shape it takes.
package llm

import "context"

// Role identifies the author of a prompt message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a completion prompt.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Client requests one completion for a prompt. No retries, no streaming.
type Client interface {
	Complete(ctx context.Context, msgs []Message, temperature float64, maxTokens int) (string, error)
}
