package search

import "context"

// Provider defines the interface for web-search providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Search runs a web search and returns up to the configured number
	// of results, most relevant first.
	Search(ctx context.Context, query string) ([]Result, error)
}

// Result is one web-search hit handed to the resolver LLM.
type Result struct {
	Title   string  `json:"title"`
	Link    string  `json:"link"`
	Snippet string  `json:"snippet"`
	Content string  `json:"content,omitempty"` // Raw page content when available
	Score   float64 `json:"score,omitempty"`
}

// Config holds web-search provider configuration
type Config struct {
	// APIKey authenticates against the search API
	APIKey string

	// BaseURL for custom endpoints (tests point this at a mock server)
	BaseURL string

	// Depth is the search depth: "basic" or "advanced"
	Depth string

	// MaxResults caps results per call
	MaxResults int

	// Timeout for API requests
	Timeout int // seconds
}
