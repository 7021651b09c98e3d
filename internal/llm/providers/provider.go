// File path: internal/llm/providers/provider.go
package providers

import "context"

// Message is a single chat turn sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider abstracts a chat-completion backend.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Name() string
}
