package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dkhwang/memoir/internal/model"
	"github.com/dkhwang/memoir/internal/worker"
)

// LiveMatcher queries a remote registry API instead of a local snapshot.
// It tries an exact name match first, then a fuzzy one, for the full name
// and then the short name. Remote failures surface as StatusLookupError so
// downstream can distinguish "unreachable" from "not listed".
type LiveMatcher struct {
	baseURL    string
	apiKey     string
	market     string
	httpClient *http.Client
	limiter    *worker.Limiter // nil disables rate limiting
}

// LiveConfig configures a LiveMatcher
type LiveConfig struct {
	BaseURL string
	APIKey  string
	Market  string // Market filter passed through to the registry
	Timeout time.Duration
}

// NewLiveMatcher creates a matcher over a remote registry API
func NewLiveMatcher(config LiveConfig, limiter *worker.Limiter) (*LiveMatcher, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("live registry base URL is required")
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &LiveMatcher{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		market:     config.Market,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}, nil
}

// Name returns the strategy name
func (m *LiveMatcher) Name() string {
	return "live-query"
}

// Match queries the registry, exact then fuzzy, full name then short name.
func (m *LiveMatcher) Match(ctx context.Context, identity model.CompanyIdentity) MatchResult {
	names := []string{identity.FullName}
	if short := identity.MatchShortName(); short != "" && short != identity.FullName {
		names = append(names, short)
	}

	for _, name := range names {
		for _, mode := range []string{"exact", "fuzzy"} {
			records, err := m.query(ctx, name, mode)
			if err != nil {
				return LookupError(err.Error())
			}
			if len(records) == 0 {
				continue
			}
			candidates := make([]model.RegistryCandidate, 0, len(records))
			for _, rec := range records {
				candidates = append(candidates, candidateFromRecord(rec))
			}
			return Found(candidates)
		}
	}

	// Zero hits on every round: the registry answered but holds nothing.
	return NotFound(true)
}

type liveResponse struct {
	Companies []map[string]any `json:"companies"`
}

func (m *LiveMatcher) query(ctx context.Context, name, mode string) ([]map[string]any, error) {
	endpoint := fmt.Sprintf("%s/companies?%s", m.baseURL, url.Values{
		"name":   {name},
		"match":  {mode},
		"market": {m.market},
	}.Encode())

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx, endpoint); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if m.apiKey != "" {
		req.Header.Set("Authorization", m.apiKey)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query registry: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10_000_000))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry API status %d", resp.StatusCode)
	}

	var parsed liveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return parsed.Companies, nil
}
