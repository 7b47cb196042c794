package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

var knownBackends = map[string]bool{"chromedp": true, "rod": true, "http": true}

func validate(c *Config) error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("server timeouts must be > 0")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.BrowserPoolSize <= 0 || c.BrowserPoolSize > DefaultMaxBrowserPoolSize {
		return fmt.Errorf("browser pool size must be between 1 and %d", DefaultMaxBrowserPoolSize)
	}
	if c.PoolAcquireTimeout <= 0 {
		return fmt.Errorf("browser acquire timeout must be > 0")
	}
	if c.CacheMaxSizeBytes <= 0 {
		return fmt.Errorf("cache max size must be > 0")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be > 0")
	}
	if !knownBackends[c.DefaultBackend] {
		return fmt.Errorf("unknown backend %q (want chromedp, rod or http)", c.DefaultBackend)
	}
	if c.BatchConcurrency < 1 || c.BatchConcurrency > DefaultMaxBatchConcurrency {
		return fmt.Errorf("batch concurrency must be between 1 and %d", DefaultMaxBatchConcurrency)
	}
	if c.BatchDelay < 0 {
		return fmt.Errorf("batch delay must be >= 0")
	}
	if c.BatchRetries < 0 {
		return fmt.Errorf("batch retries must be >= 0")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}
