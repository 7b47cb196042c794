package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// HTTP service
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Scraping
	DefaultBackend string
	HTTPTimeout    time.Duration
	UserAgent      string
	Proxy          string

	// Rate Limiting (per domain)
	RateLimitRPS   float64
	RateLimitBurst int

	// Browsers
	BrowserPoolSize    int
	BrowserHeadless    bool
	BrowserNoSandbox   bool
	BrowserMaxPages    int
	PoolAcquireTimeout time.Duration
	ChromePath         string

	// Caching
	CacheEnabled      bool
	CacheTTL          time.Duration
	CacheMaxSizeBytes int64

	// Batch driver
	ServiceURL          string
	BatchConcurrency    int
	BatchDelay          time.Duration
	BatchRetries        int
	BatchRequestTimeout time.Duration
	OutputDir           string

	// ConfigFile is the file that was read, if any.
	ConfigFile string
}

// Addr is the listen address of the HTTP service.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// legacyEnv lists unprefixed variables honoured for compatibility with
// existing deployments.
var legacyEnv = map[string]string{
	"server.host":         "HOST",
	"server.port":         "PORT",
	"browser.chrome_path": "CHROME_PATH",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultJSONLog)

	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)

	v.SetDefault("scrape.backend", DefaultBackend)
	v.SetDefault("scrape.http_timeout", DefaultHTTPTimeout)
	v.SetDefault("scrape.user_agent", DefaultUserAgent)
	v.SetDefault("scrape.proxy", "")

	v.SetDefault("ratelimit.rps", DefaultRateLimitRPS)
	v.SetDefault("ratelimit.burst", DefaultRateLimitBurst)

	v.SetDefault("browser.pool_size", DefaultBrowserPoolSize)
	v.SetDefault("browser.headless", DefaultBrowserHeadless)
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("browser.max_pages", DefaultBrowserMaxPages)
	v.SetDefault("browser.acquire_timeout", DefaultPoolAcquireTTL)
	v.SetDefault("browser.chrome_path", "")

	v.SetDefault("cache.disabled", !DefaultCacheEnabled)
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("cache.max_size_bytes", DefaultCacheMaxSizeBytes)

	v.SetDefault("batch.service_url", DefaultServiceURL)
	v.SetDefault("batch.concurrency", DefaultBatchConcurrency)
	v.SetDefault("batch.delay", DefaultBatchDelay)
	v.SetDefault("batch.retries", DefaultBatchRetries)
	v.SetDefault("batch.request_timeout", DefaultBatchRequestTimeout)
	v.SetDefault("batch.output_dir", DefaultOutputDir)
}

// Load builds a Config by combining defaults, an optional config file,
// environment variables, and CLI flags, in that order of precedence.
// Caller should pass the running *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if cmd != nil {
		for name, key := range flagKeys {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	file, err := configFile(cmd)
	if err != nil {
		return nil, err
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		LogLevel: v.GetString("log.level"),
		JSONLog:  v.GetBool("log.json"),

		Host:            v.GetString("server.host"),
		Port:            v.GetInt("server.port"),
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),

		DefaultBackend: strings.ToLower(v.GetString("scrape.backend")),
		HTTPTimeout:    v.GetDuration("scrape.http_timeout"),
		UserAgent:      v.GetString("scrape.user_agent"),
		Proxy:          v.GetString("scrape.proxy"),

		RateLimitRPS:   v.GetFloat64("ratelimit.rps"),
		RateLimitBurst: v.GetInt("ratelimit.burst"),

		BrowserPoolSize:    v.GetInt("browser.pool_size"),
		BrowserHeadless:    v.GetBool("browser.headless"),
		BrowserNoSandbox:   v.GetBool("browser.no_sandbox"),
		BrowserMaxPages:    v.GetInt("browser.max_pages"),
		PoolAcquireTimeout: v.GetDuration("browser.acquire_timeout"),
		ChromePath:         v.GetString("browser.chrome_path"),

		CacheEnabled:      !v.GetBool("cache.disabled"),
		CacheTTL:          v.GetDuration("cache.ttl"),
		CacheMaxSizeBytes: v.GetInt64("cache.max_size_bytes"),

		ServiceURL:          strings.TrimRight(v.GetString("batch.service_url"), "/"),
		BatchConcurrency:    v.GetInt("batch.concurrency"),
		BatchDelay:          v.GetDuration("batch.delay"),
		BatchRetries:        v.GetInt("batch.retries"),
		BatchRequestTimeout: v.GetDuration("batch.request_timeout"),
		OutputDir:           v.GetString("batch.output_dir"),

		ConfigFile: file,
	}

	if cmd != nil {
		if flagTrue(cmd, "verbose") {
			cfg.LogLevel = "debug"
		} else if flagTrue(cmd, "quiet") {
			cfg.LogLevel = "error"
		}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// configFile returns the explicit --config / PARSCRAPE_CONFIG path, or the
// first of ./parscrape.yaml and $HOME/.parscrape.yaml that exists.
func configFile(cmd *cobra.Command) (string, error) {
	explicit := os.Getenv(EnvPrefix + "_CONFIG")
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			explicit = f.Value.String()
		}
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}

	candidates := []string{"parscrape.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".parscrape.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("config file: %w", err)
		}
	}
	return "", nil
}

func flagTrue(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Value.String() == "true"
}
