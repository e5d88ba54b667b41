package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkhwang/memoir/internal/cache"
	"github.com/dkhwang/memoir/internal/filings"
	"github.com/dkhwang/memoir/internal/llm"
	"github.com/dkhwang/memoir/internal/model"
	"github.com/dkhwang/memoir/internal/pipeline"
	"github.com/dkhwang/memoir/internal/probe"
	"github.com/dkhwang/memoir/internal/registry"
	"github.com/dkhwang/memoir/internal/resolve"
	"github.com/dkhwang/memoir/internal/search"
	"github.com/dkhwang/memoir/internal/synth"
	"github.com/dkhwang/memoir/internal/worker"
)

var (
	jurisdictionFlag string
	outputDir        string
	runTimeout       time.Duration
	noCache          bool
	snapshotPath     string
	synthBaseURL     string
	llmProvider      string
	llmModel         string
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate <url>",
	Short: "Generate an investment memorandum for a company URL",
	Long: `Generate resolves the company behind a URL and produces a full
investment memorandum:
- Resolve the company identity (LLM with web-search assist)
- Locate regulatory filings in the selected jurisdiction
- Fall back to web-only research when filings cannot be located
- Synthesize the report and record the data source used

Example:
  memoir generate https://www.apple.com
  memoir generate https://www.samsung.com --jurisdiction korea
  memoir generate https://example.com --output-dir ./reports --timeout 45m`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&jurisdictionFlag, "jurisdiction", "j", string(model.JurisdictionGlobal), "filing jurisdiction (global, korea)")
	generateCmd.Flags().StringVar(&outputDir, "output-dir", ".", "output directory for reports")
	generateCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "overall run timeout (synthesis takes minutes)")
	generateCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable registry snapshot and search caching")
	generateCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "path to the offline registry snapshot (korea)")
	generateCmd.Flags().StringVar(&synthBaseURL, "synth-url", "", "research subsystem base URL")
	generateCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	generateCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	url := args[0]
	jurisdiction := model.Jurisdiction(jurisdictionFlag)
	if !jurisdiction.Valid() {
		return fmt.Errorf("unsupported jurisdiction %q (supported: %s, %s)", jurisdictionFlag, model.JurisdictionGlobal, model.JurisdictionKorea)
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	orchestrator, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Generating report: %s (%s)\n", url, jurisdiction)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n\n", runTimeout)
	}

	artifact, err := orchestrator.Generate(ctx, url, jurisdiction)
	if err != nil {
		return fmt.Errorf("generate failed: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(outputDir, sanitizeFilename(artifact.Identity.FullName)+".md")
	if err := os.WriteFile(path, []byte(artifact.Body), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	printArtifactSummary(artifact, path)
	return nil
}

// buildConfig assembles the runtime configuration from defaults, flags,
// and the environment. API keys are env-only.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Output.Verbose = verbose
	cfg.Cache.Enabled = !noCache
	cfg.LLM.Provider = llmProvider
	cfg.LLM.Model = llmModel
	if snapshotPath != "" {
		cfg.Registry.SnapshotPath = snapshotPath
	}
	if synthBaseURL != "" {
		cfg.Synthesizer.BaseURL = synthBaseURL
	}

	switch llmProvider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	cfg.Search.APIKey = os.Getenv("TAVILY_API_KEY")
	cfg.Filings.APIKey = os.Getenv("SEC_API_KEY")
	cfg.Financials.APIKey = os.Getenv("DART_API_KEY")
	cfg.Registry.APIKey = os.Getenv("REGISTRY_API_KEY")

	return cfg, nil
}

// buildOrchestrator wires every pipeline stage from the configuration.
// Stages whose credentials are absent are wired as unavailable: their
// lookups fail cleanly and the run degrades to web-only research instead
// of aborting.
func buildOrchestrator(cfg *model.Config) (*pipeline.Orchestrator, error) {
	var c cache.Cache
	if cfg.Cache.Enabled {
		c = cache.New(cfg.Cache.Dir, cfg.Cache.TTL)
	}

	var searcher search.Provider
	if cfg.Search.APIKey != "" {
		tavily, err := search.NewTavilyProvider(search.Config{
			APIKey:     cfg.Search.APIKey,
			BaseURL:    cfg.Search.BaseURL,
			Depth:      cfg.Search.Depth,
			MaxResults: cfg.Search.MaxResults,
		}, c)
		if err != nil {
			return nil, fmt.Errorf("configure search: %w", err)
		}
		searcher = tavily
	} else if verbose {
		fmt.Fprintln(os.Stderr, "TAVILY_API_KEY not set, web-search sub-tool disabled")
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP), searcher)
	if err != nil {
		return nil, fmt.Errorf("configure LLM: %w", err)
	}

	prober := probe.NewProber(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
	limiter := worker.NewLimiter(cfg.Concurrency.RatePerSec, cfg.Concurrency.RateBurst)

	var matcher registry.Matcher
	if cfg.Registry.LiveBaseURL != "" && cfg.Registry.APIKey != "" {
		live, err := registry.NewLiveMatcher(registry.LiveConfig{
			BaseURL: cfg.Registry.LiveBaseURL,
			APIKey:  cfg.Registry.APIKey,
			Market:  cfg.Registry.Market,
			Timeout: cfg.HTTP.Timeout,
		}, limiter)
		if err != nil {
			return nil, fmt.Errorf("configure live registry: %w", err)
		}
		matcher = live
	} else {
		matcher = registry.NewOfflineMatcher(cfg.Registry.SnapshotPath, c)
	}

	var filingSearcher pipeline.FilingSearcher
	if cfg.Filings.APIKey != "" {
		global, err := filings.NewGlobalClient(filings.GlobalConfig{
			BaseURL:   cfg.Filings.BaseURL,
			APIKey:    cfg.Filings.APIKey,
			FormTypes: cfg.Filings.FormTypes,
			StartDate: cfg.Filings.StartDate,
			Timeout:   cfg.HTTP.Timeout,
		}, limiter)
		if err != nil {
			return nil, fmt.Errorf("configure filing search: %w", err)
		}
		filingSearcher = global
	} else {
		filingSearcher = unavailableStage{"SEC_API_KEY environment variable not set"}
	}

	var financials pipeline.FinancialsFetcher
	if cfg.Financials.APIKey != "" {
		local, err := filings.NewLocalClient(filings.LocalConfig{
			BaseURL:     cfg.Financials.BaseURL,
			APIKey:      cfg.Financials.APIKey,
			BeginYear:   cfg.Financials.BeginYear,
			ReportCode:  cfg.Financials.ReportCode,
			Dataset:     cfg.Financials.Dataset,
			Timeout:     cfg.HTTP.Timeout,
			SaveWorkers: cfg.Concurrency.SaveWorkers,
		}, limiter)
		if err != nil {
			return nil, fmt.Errorf("configure financial extracts: %w", err)
		}
		financials = local
	} else {
		financials = unavailableStage{"DART_API_KEY environment variable not set"}
	}

	synthesizer := synth.NewResearchSynthesizer(synth.Config{
		BaseURL:    cfg.Synthesizer.BaseURL,
		ReportType: cfg.Synthesizer.ReportType,
		Timeout:    cfg.Synthesizer.Timeout,
	})

	return pipeline.NewOrchestrator(cfg, pipeline.Deps{
		Resolver:    resolve.NewResolver(provider, prober, cfg.Output.Verbose),
		Matcher:     matcher,
		Selector:    resolve.NewSelector(provider),
		Filings:     filingSearcher,
		Financials:  financials,
		Synthesizer: synthesizer,
	}), nil
}

// unavailableStage stands in for a stage whose credentials are missing.
// Its lookups fail, which the orchestrator records as a lookup fallback.
type unavailableStage struct {
	reason string
}

func (u unavailableStage) Search(ctx context.Context, companyName, tickerHint string) (*filings.FilingSet, error) {
	return nil, fmt.Errorf("filing search unavailable: %s", u.reason)
}

func (u unavailableStage) FetchFinancials(ctx context.Context, registryID, workspaceDir string) (string, error) {
	return "", fmt.Errorf("financial extracts unavailable: %s", u.reason)
}

func printArtifactSummary(artifact *model.ReportArtifact, path string) {
	fmt.Printf("✓ %s (%s)\n", artifact.Identity.FullName, artifact.Jurisdiction)
	fmt.Printf("  Report: %s\n", path)

	switch {
	case artifact.Source.Degraded():
		fmt.Printf("  Source: web-only research (fallback: %s)\n", artifact.Source.Reason)
	case artifact.Source.Mode == model.ModeURLList:
		fmt.Printf("  Source: %d filing document(s)\n", len(artifact.Source.SourceURLs))
		for _, u := range artifact.Source.SourceURLs {
			fmt.Printf("    - %s\n", u)
		}
	case artifact.Source.Mode == model.ModeDocumentPath:
		fmt.Printf("  Source: registry %s financial statements\n", artifact.Source.RegistryID)
	default:
		fmt.Printf("  Source: web-only research\n")
	}

	for _, img := range artifact.Images {
		fmt.Printf("  Image: %s\n", img.URL)
	}
}

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	s = strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	).Replace(s)

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "report"
	}

	return s
}
