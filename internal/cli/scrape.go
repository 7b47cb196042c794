package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/parscrape/internal/config"
	"github.com/law-makers/parscrape/internal/ui"
	"github.com/law-makers/parscrape/internal/utils/output"
	"github.com/law-makers/parscrape/pkg/models"
)

var (
	scrapeFetch    fetchFlags
	scrapeOutput   string
	scrapeMarkdown bool
	scrapeNoImages bool
	scrapeJSON     bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrape one URL without running the service",
	Long: `Loads a single page in-process with the selected backend and prints its
absolute links and visible text.

The same validation, wait strategies and error classification as the HTTP
service apply.`,
	Example: `  # Render with headless Chrome (chromedp)
  parscrape scrape https://example.com

  # Plain HTTP fetch, no browser
  parscrape scrape https://example.com --backend http

  # Wait for an element before reading the page
  parscrape scrape https://example.com --wait selector --selector "#content"

  # Save the full response, or markdown
  parscrape scrape https://example.com -o page.json
  parscrape scrape https://example.com -o page.md`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().String("backend", config.DefaultBackend, "Backend: chromedp, rod or http")
	addFetchFlags(scrapeCmd.Flags(), &scrapeFetch)
	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", "", "File path to save output (supports .json, .txt, .md)")
	scrapeCmd.Flags().BoolVar(&scrapeMarkdown, "markdown", false, "Include a markdown rendering of the page")
	scrapeCmd.Flags().BoolVar(&scrapeNoImages, "no-images", false, "Drop images from the markdown rendering")
	scrapeCmd.Flags().BoolVar(&scrapeJSON, "print-json", false, "Print the full response as JSON")
}

func runScrape(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)

	req, err := scrapeFetch.request(cmd.Flags())
	if err != nil {
		return err
	}
	req.URL = args[0]
	req.IncludeMarkdown = scrapeMarkdown || strings.EqualFold(filepath.Ext(scrapeOutput), ".md")
	if scrapeNoImages {
		keep := false
		req.IncludeImages = &keep
	}

	log.Info().Str("url", req.URL).Str("backend", a.Scraper.DefaultBackend()).Msg("Fetching URL")
	resp, err := a.Scraper.Scrape(cmd.Context(), req)
	if err != nil {
		return err
	}

	if scrapeOutput != "" {
		if err := saveResponse(resp, scrapeOutput); err != nil {
			return err
		}
		log.Info().Str("file", scrapeOutput).Msg("Output saved")
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", ui.Success("✓ Saved to "+scrapeOutput))
		return nil
	}

	if scrapeJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(cmd.OutOrStdout(), resp)
	return nil
}

// saveResponse writes resp in the format implied by the file extension;
// anything unknown is written as JSON.
func saveResponse(resp *models.ScrapeResponse, path string) error {
	var content string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		content = fmt.Sprintf("URL: %s\n\n%s", resp.URL, resp.Text)
	case ".md":
		content = resp.Markdown
	default:
		if err := output.SaveJSON(resp, path); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func printResponse(w io.Writer, resp *models.ScrapeResponse) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "URL:             %s\n", resp.URL)
	fmt.Fprintf(w, "Backend:         %s\n", resp.FetchUsing)
	if resp.StatusCode != 0 {
		fmt.Fprintf(w, "Status:          %d\n", resp.StatusCode)
	}
	if resp.Title != "" {
		fmt.Fprintf(w, "Title:           %s\n", resp.Title)
	}
	fmt.Fprintf(w, "Processing Time: %.2fs\n", resp.ProcessingTime)
	fmt.Fprintf(w, "Links:           %d\n", len(resp.URLs))
	fmt.Fprintf(w, "Text:            %d chars\n", len(resp.Text))
	fmt.Fprintf(w, "\n")

	for _, u := range resp.URLs {
		fmt.Fprintf(w, "  %s\n", u)
	}
	if len(resp.URLs) > 0 {
		fmt.Fprintf(w, "\n")
	}

	// Print content preview (first 500 chars)
	preview := resp.Text
	if len(preview) > 500 {
		preview = preview[:500] + "..."
	}
	fmt.Fprintf(w, "%s\n%s\n", ui.Bold("Content Preview:"), preview)
}
