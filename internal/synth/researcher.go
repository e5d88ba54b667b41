package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dkhwang/memoir/internal/model"
)

// Config configures the ResearchSynthesizer
type Config struct {
	BaseURL    string
	ReportType string
	Timeout    time.Duration
}

// DefaultConfig returns a default synthesizer configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:8000",
		ReportType: "research_report",
		Timeout:    15 * time.Minute,
	}
}

// ResearchSynthesizer drives an external research-and-writing subsystem
// over HTTP. Report runs take minutes; the client timeout covers the whole
// run and cancellation flows through the request context.
type ResearchSynthesizer struct {
	baseURL    string
	reportType string
	httpClient *http.Client
}

// NewResearchSynthesizer creates a new research synthesizer client
func NewResearchSynthesizer(config Config) *ResearchSynthesizer {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	reportType := config.ReportType
	if reportType == "" {
		reportType = "research_report"
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 15 * time.Minute
	}

	return &ResearchSynthesizer{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		reportType: reportType,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name returns the synthesizer name
func (s *ResearchSynthesizer) Name() string {
	return "research"
}

type synthesisRequest struct {
	Query         string   `json:"query"`
	ReportType    string   `json:"report_type"`
	ReportSource  string   `json:"report_source"`
	SourceURLs    []string `json:"source_urls,omitempty"`
	DocumentPath  string   `json:"document_path,omitempty"`
	ConfigProfile string   `json:"config_profile,omitempty"`
}

type synthesisResponse struct {
	Report string `json:"report"`
	Images []struct {
		URL     string `json:"url"`
		Caption string `json:"caption"`
	} `json:"images"`
	Error string `json:"error,omitempty"`
}

// Synthesize runs one complete research-and-writing pass and returns the
// finished report body with any generated images.
func (s *ResearchSynthesizer) Synthesize(ctx context.Context, synthReq Request) (*Result, error) {
	reportType := synthReq.ReportType
	if reportType == "" {
		reportType = s.reportType
	}

	payload, err := json.Marshal(synthesisRequest{
		Query:         synthReq.Query,
		ReportType:    reportType,
		ReportSource:  reportSource(synthReq.Mode),
		SourceURLs:    synthReq.SourceURLs,
		DocumentPath:  synthReq.DocumentPath,
		ConfigProfile: synthReq.Profile,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/report", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 50_000_000))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("synthesis API status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed synthesisResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("synthesis failed: %s", parsed.Error)
	}
	if strings.TrimSpace(parsed.Report) == "" {
		return nil, fmt.Errorf("synthesis returned an empty report")
	}

	result := &Result{Body: parsed.Report}
	for _, img := range parsed.Images {
		result.Images = append(result.Images, model.ImageRef{URL: img.URL, Caption: img.Caption})
	}
	return result, nil
}

// reportSource maps a source mode onto the subsystem's research-source
// switch. Document-backed runs still do web research around the documents.
func reportSource(mode model.SourceMode) string {
	if mode == model.ModeDocumentPath {
		return "hybrid"
	}
	return "web"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
