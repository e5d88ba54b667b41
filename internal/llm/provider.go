package llm

import "context"

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// GenerateJSON runs a chat completion whose answer must be a single
	// JSON object. The returned content is raw model output; callers own
	// parsing and validation (the model is an untrusted oracle).
	GenerateJSON(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Request contains the input for a JSON-mode completion
type Request struct {
	// System is the system prompt describing the JSON contract
	System string

	// User is the user message
	User string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature, 0 means provider default
	Temperature float32

	// AllowSearch permits one round-trip through the web-search sub-tool
	// when the provider decides the prompt alone is insufficient. Ignored
	// by providers without tool support, which inject search results
	// up-front instead.
	AllowSearch bool

	// SearchHint is the query used when a provider injects search results
	// up-front rather than letting the model ask (optional).
	SearchHint string
}

// Response contains the LLM's output
type Response struct {
	// Content is the raw model output, expected to be a JSON object
	Content string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int

	// SearchCalls counts web-search tool invocations made for this request
	SearchCalls int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, mock servers)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Model:     "",
		Timeout:   60,
		MaxTokens: 2000,
	}
}
