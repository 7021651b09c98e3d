// File path: internal/llm/providers/ollama_client.go
package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"

	"github.com/nextsteplk/pathway/internal/common"
)

// OllamaProvider generates chat completions through a local Ollama server via
// langchaingo. It is the fallback when no OpenAI key is configured.
type OllamaProvider struct {
	model llms.Model
	name  string
}

// NewOllamaProvider constructs a provider for the given model name and
// optional server URL.
func NewOllamaProvider(model, serverURL string) (*OllamaProvider, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if strings.TrimSpace(serverURL) != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init ollama provider: %w", err)
	}
	common.Logger().Info("llm: ollama provider configured", "model", model, "server", serverURL)
	return &OllamaProvider{model: llm, name: "ollama"}, nil
}

func (o *OllamaProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if o == nil || o.model == nil {
		return "", fmt.Errorf("nil ollama provider")
	}
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		var role schema.ChatMessageType
		switch strings.ToLower(msg.Role) {
		case "system":
			role = schema.ChatMessageTypeSystem
		case "assistant":
			role = schema.ChatMessageTypeAI
		default:
			role = schema.ChatMessageTypeHuman
		}
		content = append(content, llms.TextParts(role, msg.Content))
	}
	resp, err := o.model.GenerateContent(ctx, content)
	if err != nil {
		common.Logger().Error("llm: ollama completion failed", "error", err)
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Content, nil
}

func (o *OllamaProvider) Name() string {
	return o.name
}
