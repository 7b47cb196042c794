package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/parscrape/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP scrape service",
	Long: `Starts the scrape service. POST /scrape accepts a JSON body with the
page URL and fetch options and answers with the page's absolute links and
visible text. GET /health reports liveness.

Browsers are launched on the first request that needs them and closed on
shutdown (SIGINT/SIGTERM).`,
	Example: `  # Listen on the default 0.0.0.0:8000
  parscrape serve

  # Serve on localhost only, using the rod backend by default
  parscrape serve --host 127.0.0.1 --port 9000 --backend rod

  # Run inside a container
  parscrape serve --no-sandbox --pool-size 4`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", config.DefaultHost, "Interface to listen on")
	serveCmd.Flags().Int("port", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().String("backend", config.DefaultBackend, "Default backend: chromedp, rod or http")
	serveCmd.Flags().Int("pool-size", config.DefaultBrowserPoolSize, "Number of browser instances per backend")
	serveCmd.Flags().Bool("no-sandbox", false, "Launch Chrome without its sandbox")
	serveCmd.Flags().Bool("no-cache", false, "Disable the response cache")
}

func runServe(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	cfg := a.Config

	log.Info().
		Str("backend", cfg.DefaultBackend).
		Int("pool_size", cfg.BrowserPoolSize).
		Bool("cache", cfg.CacheEnabled).
		Msg("Starting scrape service")

	return a.NewServer(Version).Run(cmd.Context())
}
