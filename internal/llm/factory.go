package llm

import (
	"fmt"
	"strings"

	"github.com/dkhwang/memoir/internal/model"
	"github.com/dkhwang/memoir/internal/search"
)

// NewProvider creates a new LLM provider based on configuration. The
// searcher backs the web-search sub-tool and may be nil to disable it.
func NewProvider(config Config, searcher search.Provider) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config, searcher)

	case "anthropic", "claude":
		return NewAnthropicProvider(config, searcher)

	case "ollama":
		return NewOllamaProvider(config, searcher)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig, http model.HTTPConfig) Config {
	return Config{
		Provider:   modelConfig.Provider,
		Model:      modelConfig.Model,
		APIKey:     modelConfig.APIKey,
		BaseURL:    modelConfig.BaseURL,
		Timeout:    modelConfig.Timeout,
		MaxTokens:  modelConfig.MaxTokens,
		HTTPProxy:  http.HTTPProxy,
		HTTPSProxy: http.HTTPSProxy,
		NoProxy:    http.NoProxy,
	}
}
