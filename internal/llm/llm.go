// File path: internal/llm/llm.go
package llm

import (
	"os"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/nextsteplk/pathway/internal/common"
	"github.com/nextsteplk/pathway/internal/llm/providers"
)

type Message = providers.Message

type Provider = providers.Provider

// NewProvider selects a chat provider from the environment: OpenAI when
// OPENAI_API_KEY is set, otherwise a local Ollama server.
func NewProvider() Provider {
	logger := common.Logger()
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey != "" {
		opts := []option.RequestOption{option.WithAPIKey(apiKey)}
		if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
			logger.Info("llm: configuring OpenAI client with custom endpoint", "endpoint", endpoint)
			opts = append(opts, option.WithBaseURL(endpoint))
		}
		client := openai.NewClient(opts...)
		logger.Info("llm: OpenAI provider selected")
		return providers.NewOpenAIProvider(client)
	}

	model := strings.TrimSpace(os.Getenv("OLLAMA_MODEL"))
	if model == "" {
		model = "llama3"
	}
	host := strings.TrimSpace(os.Getenv("OLLAMA_HOST"))
	logger.Warn("llm: OPENAI_API_KEY not set; falling back to ollama", "model", model)
	provider, err := providers.NewOllamaProvider(model, host)
	if err != nil {
		logger.Error("llm: ollama provider init failed", "error", err)
		return nil
	}
	return provider
}
