package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Log in JSON format")
	cmd.PersistentFlags().String("config", "", "Path to configuration file (default ./parscrape.yaml or $HOME/.parscrape.yaml)")
	cmd.PersistentFlags().String("proxy", "", "Set HTTP/SOCKS5 proxy for browsers and the http backend")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().String("chrome-path", "", "Path to the Chrome/Chromium executable")
}

// flagKeys maps CLI flag names to configuration keys. Flags that are not
// defined on the running command are skipped.
var flagKeys = map[string]string{
	"proxy":       "scrape.proxy",
	"user-agent":  "scrape.user_agent",
	"chrome-path": "browser.chrome_path",
	"json":        "log.json",

	"host":       "server.host",
	"port":       "server.port",
	"backend":    "scrape.backend",
	"no-cache":   "cache.disabled",
	"pool-size":  "browser.pool_size",
	"no-sandbox": "browser.no_sandbox",

	"service":     "batch.service_url",
	"concurrency": "batch.concurrency",
	"delay":       "batch.delay",
	"retries":     "batch.retries",
	"output-dir":  "batch.output_dir",
}
