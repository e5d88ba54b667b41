package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkhwang/memoir/internal/model"
	"github.com/dkhwang/memoir/internal/pipeline"
	"github.com/dkhwang/memoir/internal/worker"
)

var batchTimeout time.Duration

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Generate reports for multiple company URLs from a file",
	Long: `Batch generates a report for every URL in the input file:
- Read URLs from input file (one per line, # comments allowed)
- Duplicate URLs are generated once; repeats reuse the stored report
- A company that cannot be identified is reported and skipped

Example:
  memoir batch companies.txt
  memoir batch companies.txt --jurisdiction korea --output-dir ./reports
  memoir batch companies.txt --timeout 4h`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&jurisdictionFlag, "jurisdiction", "j", string(model.JurisdictionGlobal), "filing jurisdiction (global, korea)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./memoir-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 2*time.Hour, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable registry snapshot and search caching")
	batchCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "path to the offline registry snapshot (korea)")
	batchCmd.Flags().StringVar(&synthBaseURL, "synth-url", "", "research subsystem base URL")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	jurisdiction := model.Jurisdiction(jurisdictionFlag)
	if !jurisdiction.Valid() {
		return fmt.Errorf("unsupported jurisdiction %q (supported: %s, %s)", jurisdictionFlag, model.JurisdictionGlobal, model.JurisdictionKorea)
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	urls, err := worker.ReadURLsFromFile(file)
	if err != nil {
		return fmt.Errorf("read urls: %w", err)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs found in %s", file)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	orchestrator, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Processing %d URLs (%s)\n\n", len(urls), jurisdiction)

	// Sequential on purpose: one synthesis run saturates the research
	// subsystem, and report runs take minutes each.
	successCount := 0
	failureCount := 0
	for _, url := range urls {
		artifact, err := orchestrator.Generate(ctx, url, jurisdiction)
		if err != nil {
			failureCount++
			if errors.Is(err, pipeline.ErrUnknownCompany) {
				fmt.Fprintf(os.Stderr, "✗ %s: company could not be identified\n", url)
			} else {
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", url, err)
			}
			continue
		}

		path := filepath.Join(outputDir, sanitizeFilename(artifact.Identity.FullName)+".md")
		if err := os.WriteFile(path, []byte(artifact.Body), 0644); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: write report: %v\n", url, err)
			continue
		}

		successCount++
		if artifact.Source.Degraded() {
			fmt.Fprintf(os.Stderr, "✓ %s (web-only, %s)\n", artifact.Identity.FullName, artifact.Source.Reason)
		} else {
			fmt.Fprintf(os.Stderr, "✓ %s\n", artifact.Identity.FullName)
		}
	}

	fmt.Fprintf(os.Stderr, "\nTotal: %d  Success: %d  Failures: %d  Output: %s\n",
		len(urls), successCount, failureCount, outputDir)

	return nil
}
