package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dkhwang/memoir/internal/cache"
)

// TavilyProvider implements the Provider interface against the Tavily
// search API. Responses are cached per query so one resolver round-trip
// that repeats a query does not burn a second API call.
type TavilyProvider struct {
	apiKey     string
	baseURL    string
	depth      string
	maxResults int
	httpClient *http.Client
	cache      cache.Cache // nil disables caching
}

type tavilyRequest struct {
	APIKey            string   `json:"api_key"`
	Query             string   `json:"query"`
	SearchDepth       string   `json:"search_depth"`
	IncludeDomains    []string `json:"include_domains"`
	ExcludeDomains    []string `json:"exclude_domains"`
	MaxResults        int      `json:"max_results"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent bool     `json:"include_raw_content"`
	IncludeImages     bool     `json:"include_images"`
}

type tavilyResponse struct {
	Answer  string         `json:"answer"`
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	RawContent string  `json:"raw_content"`
	Score      float64 `json:"score"`
}

// NewTavilyProvider creates a new Tavily provider
func NewTavilyProvider(config Config, c cache.Cache) (*TavilyProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Tavily API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}

	depth := config.Depth
	if depth == "" {
		depth = "advanced"
	}

	maxResults := config.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &TavilyProvider{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		depth:      depth,
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: timeout},
		cache:      c,
	}, nil
}

// Name returns the provider name
func (p *TavilyProvider) Name() string {
	return "tavily"
}

// Search runs a web search for the given query.
func (p *TavilyProvider) Search(ctx context.Context, query string) ([]Result, error) {
	key := cache.Key("search", p.depth, query)
	if p.cache != nil {
		if data, found := p.cache.Get(key); found {
			var cached []Result
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	reqBody := tavilyRequest{
		APIKey:            p.apiKey,
		Query:             query,
		SearchDepth:       p.depth,
		IncludeDomains:    []string{},
		ExcludeDomains:    []string{},
		MaxResults:        p.maxResults,
		IncludeAnswer:     true,
		IncludeRawContent: true,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10_000_000))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, Result{
			Title:   r.Title,
			Link:    r.URL,
			Snippet: r.Content,
			Content: r.RawContent,
			Score:   r.Score,
		})
	}

	if p.cache != nil {
		if data, err := json.Marshal(results); err == nil {
			_ = p.cache.Set(key, data, 0)
		}
	}

	return results, nil
}

// CompanyQuery shapes the canned query used by the resolver's search tool.
func CompanyQuery(subject string) string {
	return "Information about " + subject + " and Top competitors of " + subject
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
