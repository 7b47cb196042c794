package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel = "info"
	DefaultJSONLog  = false

	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8000
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 90 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultBackend     = "chromedp"
	DefaultUserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultHTTPTimeout = 30 * time.Second

	DefaultRateLimitRPS   = 3.0
	DefaultRateLimitBurst = 5

	DefaultBrowserPoolSize    = 2
	DefaultMaxBrowserPoolSize = 10
	DefaultBrowserHeadless    = true
	DefaultBrowserMaxPages    = 50
	DefaultPoolAcquireTTL     = 10 * time.Second

	DefaultCacheEnabled      = true
	DefaultCacheTTL          = 5 * time.Minute
	DefaultCacheMaxSizeBytes = 100 * 1024 * 1024 // 100MB

	DefaultServiceURL          = "http://localhost:8000"
	DefaultBatchConcurrency    = 1
	DefaultMaxBatchConcurrency = 50
	DefaultBatchDelay          = 2 * time.Second
	DefaultBatchRetries        = 2
	DefaultBatchRequestTimeout = 90 * time.Second
	DefaultOutputDir           = "scraped_data"
)

// EnvPrefix namespaces environment overrides, e.g. PARSCRAPE_SERVER_PORT.
const EnvPrefix = "PARSCRAPE"
