package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/parscrape/internal/batch"
	"github.com/law-makers/parscrape/internal/config"
	"github.com/law-makers/parscrape/internal/retry"
	"github.com/law-makers/parscrape/internal/ui"
	"github.com/law-makers/parscrape/internal/utils/output"
	"github.com/law-makers/parscrape/pkg/models"
)

var (
	batchFetch    fetchFlags
	batchURLsFile string
	batchSummary  string
	batchLocal    bool
	batchSaveJSON bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Scrape a list of URLs through the service",
	Long: `Sends each URL to a running scrape service (or scrapes in-process with
--local), retrying gateway failures, and saves one text file per page plus a
CSV summary of the run.

Without --urls the built-in list of sites is used. URL files may be plain
text (one per line, # comments), YAML or JSON.`,
	Example: `  # Scrape the built-in list against a local service
  parscrape batch

  # Your own list, four at a time, one second apart
  parscrape batch --urls sites.txt --concurrency 4 --delay 1s

  # No service: scrape in-process with plain HTTP
  parscrape batch --local --backend http --urls sites.yaml`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("service", config.DefaultServiceURL, "Base URL of the scrape service")
	batchCmd.Flags().StringVar(&batchURLsFile, "urls", "", "File with URLs (.txt, .yaml or .json)")
	batchCmd.Flags().Duration("delay", config.DefaultBatchDelay, "Minimum gap between two requests")
	batchCmd.Flags().Int("concurrency", config.DefaultBatchConcurrency, "Number of URLs in flight at once")
	batchCmd.Flags().Int("retries", config.DefaultBatchRetries, "Retries per URL on gateway errors")
	batchCmd.Flags().String("output-dir", config.DefaultOutputDir, "Directory for text files and the summary")
	batchCmd.Flags().StringVar(&batchSummary, "summary", "", "Summary CSV path (default <output-dir>/summary.csv)")
	batchCmd.Flags().BoolVar(&batchLocal, "local", false, "Scrape in-process instead of calling the service")
	batchCmd.Flags().BoolVar(&batchSaveJSON, "save-json", false, "Also save the full JSON response per page")
	batchCmd.Flags().String("backend", config.DefaultBackend, "Backend to request: chromedp, rod or http")
	addFetchFlags(batchCmd.Flags(), &batchFetch)
}

func runBatch(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	cfg := a.Config
	ctx := cmd.Context()

	urls := batch.DefaultURLs
	if batchURLsFile != "" {
		loaded, err := batch.LoadURLs(batchURLsFile)
		if err != nil {
			return err
		}
		urls = loaded
	}

	template, err := batchFetch.request(cmd.Flags())
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("backend") {
		template.FetchUsing = cfg.DefaultBackend
	}

	var scraper batch.Scraper = a.Scraper
	target := "in-process"
	if !batchLocal {
		client := batch.NewClient(cfg.ServiceURL, cfg.BatchRequestTimeout)
		if err := client.Health(ctx); err != nil {
			return fmt.Errorf("scrape service not reachable at %s: %w", cfg.ServiceURL, err)
		}
		scraper = client
		target = cfg.ServiceURL
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.BatchRetries + 1

	var progress io.Writer
	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		progress = os.Stderr
	}

	log.Info().
		Int("urls", len(urls)).
		Str("target", target).
		Int("concurrency", cfg.BatchConcurrency).
		Dur("delay", cfg.BatchDelay).
		Msg("Starting batch")

	start := time.Now()
	runner := batch.NewRunner(scraper, batch.Options{
		Concurrency: cfg.BatchConcurrency,
		Delay:       cfg.BatchDelay,
		Retry:       retryCfg,
		Template:    template,
		OutputDir:   cfg.OutputDir,
		SaveJSON:    batchSaveJSON,
		Progress:    progress,
	})
	results := runner.Run(ctx, urls)

	summaryPath := batchSummary
	if summaryPath == "" {
		summaryPath = filepath.Join(cfg.OutputDir, "summary.csv")
	}
	if err := output.SaveSummaryCSV(results, summaryPath); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	printBatchResults(cmd.OutOrStdout(), results)
	ok, failed := batch.Summary(results)
	failedMsg := fmt.Sprintf("%d failed", failed)
	if failed > 0 {
		failedMsg = ui.Warn(failedMsg)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s %d succeeded, %s in %s\n",
		ui.Bold("Done:"), ok, failedMsg, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", ui.Info("Output: "+cfg.OutputDir+"  Summary: "+summaryPath))

	return ctx.Err()
}

func printBatchResults(w io.Writer, results []models.BatchResult) {
	fmt.Fprintln(w)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "  %s %s: %s\n", ui.Error("✗"), r.URL, r.Err)
			continue
		}
		fmt.Fprintf(w, "  %s %s (%d links, %d chars)\n",
			ui.Success("✓"), r.URL, len(r.Response.URLs), len(r.Response.Text))
	}
}
