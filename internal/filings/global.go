package filings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dkhwang/memoir/internal/worker"
)

// Filing is one record from the full-text filing index.
type Filing struct {
	AccessionNo string `json:"accessionNo"`
	CIK         string `json:"cik"`
	CompanyName string `json:"companyNameLong"`
	Ticker      string `json:"ticker"`
	FormType    string `json:"formType"`
	FiledAt     string `json:"filedAt"`
	FilingURL   string `json:"filingUrl"`
}

// FilingSet is a ranked full-text search result. Empty is a valid,
// non-error outcome.
type FilingSet struct {
	Total   int      `json:"total"`
	Filings []Filing `json:"filings"`
}

// URLs returns the filing document URLs in rank order, skipping records
// without one, capped at max (0 means no cap).
func (s *FilingSet) URLs(max int) []string {
	var urls []string
	for _, f := range s.Filings {
		if f.FilingURL == "" {
			continue
		}
		urls = append(urls, f.FilingURL)
		if max > 0 && len(urls) == max {
			break
		}
	}
	return urls
}

// GlobalConfig configures the GlobalClient
type GlobalConfig struct {
	BaseURL   string
	APIKey    string
	FormTypes []string // Statutory form filter, e.g. ["10-K"]
	StartDate string   // Filing-date lower bound, YYYY-MM-DD
	Timeout   time.Duration
}

// GlobalClient searches a full-text filing index (sec-api.io style) filtered
// to a fixed set of statutory form types and a fixed lower-bound date.
type GlobalClient struct {
	baseURL    string
	apiKey     string
	formTypes  []string
	startDate  string
	httpClient *http.Client
	limiter    *worker.Limiter // nil disables rate limiting
}

// NewGlobalClient creates a new full-text filing search client
func NewGlobalClient(config GlobalConfig, limiter *worker.Limiter) (*GlobalClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("filings API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.sec-api.io"
	}

	formTypes := config.FormTypes
	if len(formTypes) == 0 {
		formTypes = []string{"10-K"}
	}

	startDate := config.StartDate
	if startDate == "" {
		startDate = "2020-01-01"
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &GlobalClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     config.APIKey,
		formTypes:  formTypes,
		startDate:  startDate,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}, nil
}

type fullTextQuery struct {
	Query     string   `json:"query"`
	FormTypes []string `json:"formTypes"`
	StartDate string   `json:"startDate"`
}

type fullTextResponse struct {
	Total struct {
		Value int `json:"value"`
	} `json:"total"`
	Filings []Filing `json:"filings"`
}

// Search runs a full-text search for the company. The query is shaped the
// way the index expects corporate filers to be found ("<name> corporation").
func (c *GlobalClient) Search(ctx context.Context, companyName, tickerHint string) (*FilingSet, error) {
	query := fmt.Sprintf("%s corporation", companyName)
	if tickerHint != "" && tickerHint != "N/A" {
		query = fmt.Sprintf("%q OR %s", companyName, tickerHint)
	}

	endpoint := c.baseURL + "/full-text-search"
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, endpoint); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	payload, err := json.Marshal(fullTextQuery{
		Query:     query,
		FormTypes: c.formTypes,
		StartDate: c.startDate,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search filings: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10_000_000))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("filings API status %d", resp.StatusCode)
	}

	var parsed fullTextResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &FilingSet{
		Total:   parsed.Total.Value,
		Filings: parsed.Filings,
	}, nil
}
