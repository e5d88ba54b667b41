package model

import "time"

// Config is the complete runtime configuration.
// Hierarchy: CLI flags > MEMOIR_* env vars > config file > defaults.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	LLM         LLMConfig         `yaml:"llm"`
	Search      SearchConfig      `yaml:"search"`
	Registry    RegistryConfig    `yaml:"registry"`
	Filings     FilingsConfig     `yaml:"filings"`
	Financials  FinancialsConfig  `yaml:"financials"`
	Synthesizer SynthesizerConfig `yaml:"synthesizer"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Output      OutputConfig      `yaml:"output"`
}

// HTTPConfig controls outbound HTTP behavior shared by all clients.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty"`
	NoProxy      string        `yaml:"no_proxy,omitempty"`
}

// LLMConfig configures the chat-completion provider used by the company
// resolver and the identifier selector.
type LLMConfig struct {
	Provider  string `yaml:"provider"` // "openai", "anthropic", "ollama"
	Model     string `yaml:"model"`
	APIKey    string `yaml:"-"` // From env only, never persisted
	BaseURL   string `yaml:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// SearchConfig configures the web-search sub-tool.
type SearchConfig struct {
	APIKey     string `yaml:"-"`
	BaseURL    string `yaml:"base_url"`
	Depth      string `yaml:"depth"`       // "basic" or "advanced"
	MaxResults int    `yaml:"max_results"` // Result-count cap per call
}

// RegistryConfig configures the local-jurisdiction registry matcher.
type RegistryConfig struct {
	SnapshotPath string `yaml:"snapshot_path"` // Offline registry snapshot (JSON)
	LiveBaseURL  string `yaml:"live_base_url,omitempty"`
	APIKey       string `yaml:"-"`
	Market       string `yaml:"market,omitempty"` // Market filter for live queries
}

// FilingsConfig configures the global full-text filing search.
type FilingsConfig struct {
	BaseURL   string   `yaml:"base_url"`
	APIKey    string   `yaml:"-"`
	FormTypes []string `yaml:"form_types"` // Statutory forms to include
	StartDate string   `yaml:"start_date"` // Lower bound, YYYY-MM-DD
	MaxURLs   int      `yaml:"max_urls"`   // Filing URLs handed to synthesis
}

// FinancialsConfig configures the financial-statement extract client.
type FinancialsConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"-"`
	BeginYear  int    `yaml:"begin_year"`  // First business year of the window
	ReportCode string `yaml:"report_code"` // Statutory report type
	Dataset    string `yaml:"dataset"`     // Statement dataset selector
}

// SynthesizerConfig configures the research-and-writing subsystem client.
type SynthesizerConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	ReportType string        `yaml:"report_type"`
	Profile    string        `yaml:"profile"`    // Config profile for global runs
	ProfileKR  string        `yaml:"profile_kr"` // Config profile for Korean runs
}

// CacheConfig controls snapshot and search-response caching.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir,omitempty"` // Disk layer, empty = memory only
	TTL     time.Duration `yaml:"ttl"`
}

// ConcurrencyConfig bounds internal fan-out.
type ConcurrencyConfig struct {
	SaveWorkers int     `yaml:"save_workers"` // Statement-save worker pool size
	RatePerSec  float64 `yaml:"rate_per_sec"` // Per-domain outbound request rate
	RateBurst   int     `yaml:"rate_burst"`
}

// OutputConfig controls operator-facing output.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults. The filing window and form
// set mirror the statutory defaults the pipeline was designed around.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Memoir/0.1 (+https://github.com/dkhwang/memoir)",
			MaxBodyBytes: 2_000_000,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			Timeout:   60,
			MaxTokens: 2000,
		},
		Search: SearchConfig{
			BaseURL:    "https://api.tavily.com",
			Depth:      "advanced",
			MaxResults: 5,
		},
		Registry: RegistryConfig{
			SnapshotPath: "corp_list.json",
		},
		Filings: FilingsConfig{
			BaseURL:   "https://api.sec-api.io",
			FormTypes: []string{"10-K"},
			StartDate: "2020-01-01",
			MaxURLs:   2,
		},
		Financials: FinancialsConfig{
			BaseURL:    "https://opendart.fss.or.kr/api",
			BeginYear:  2020,
			ReportCode: "11011", // Annual business report
			Dataset:    "OFS",   // Standalone financial statements
		},
		Synthesizer: SynthesizerConfig{
			BaseURL:    "http://localhost:8000",
			Timeout:    15 * time.Minute,
			ReportType: "research_report",
			Profile:    "default",
			ProfileKR:  "korean",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     1 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			SaveWorkers: 4,
			RatePerSec:  5,
			RateBurst:   5,
		},
		Output: OutputConfig{},
	}
}
