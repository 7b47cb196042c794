package cli

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/parscrape/internal/app"
	"github.com/law-makers/parscrape/internal/config"
)

// Version is reported by --version, GET / and GET /health.
var Version = "0.1.0"

// shutdownTimeout bounds how long closing browsers may take after a command.
const shutdownTimeout = 15 * time.Second

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "parscrape",
	Short: "Reduce web pages to their links and visible text",
	Long: `Parscrape loads pages in a headless browser (chromedp or go-rod) or over
plain HTTP and reduces the rendered HTML to a deduplicated list of absolute
links and a cleaned plain-text rendering.

Run it as an HTTP service, scrape a single URL, drive a batch of URLs
through a running service, or reduce an HTML file you already have.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with ctx, which is cancelled on SIGINT/SIGTERM.
// It returns the process exit code.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Command failed")
		return 1
	}
	return 0
}

func init() {
	// Initialize the application before running commands (skipped for -h/--version)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetAppFromCmd(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		app.SetupLogging(cfg)
		if cfg.ConfigFile != "" {
			log.Debug().Str("file", cfg.ConfigFile).Msg("Configuration file loaded")
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		SetApp(cmd, a)
		return nil
	}

	// Ensure app is closed after the command runs
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return closeApp(cmd)
	}
}

func closeApp(cmd *cobra.Command) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := a.Close(ctx)
	SetApp(cmd, nil)
	return err
}

func init() {
	// Register centralized flags
	config.RegisterFlags(rootCmd)

	// Customize help and version flag descriptions
	rootCmd.Flags().BoolP("help", "h", false, "Help for parscrape")
	rootCmd.Flags().Bool("version", false, "Version for parscrape")

	// Disable the default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.SetHelpFunc(customHelpFunc)
	rootCmd.SetUsageFunc(customUsageFunc)
	rootCmd.SetErr(os.Stderr)
}
