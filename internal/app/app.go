// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/parscrape/internal/cache"
	"github.com/law-makers/parscrape/internal/config"
	"github.com/law-makers/parscrape/internal/engine"
	chromedpbackend "github.com/law-makers/parscrape/internal/engine/chromedp"
	rodbackend "github.com/law-makers/parscrape/internal/engine/rod"
	"github.com/law-makers/parscrape/internal/engine/static"
	"github.com/law-makers/parscrape/internal/proxy"
	"github.com/law-makers/parscrape/internal/ratelimit"
	"github.com/law-makers/parscrape/internal/service"
	"github.com/law-makers/parscrape/pkg/models"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per command run. Use Close() to release browsers and
// background goroutines on shutdown.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	Cache       cache.Cache
	RateLimiter ratelimit.RateLimiter
	HTTPClient  *http.Client
	Registry    *engine.Registry
	Scraper     *service.Scraper
	startTime   time.Time
}

// SetupLogging configures the global zerolog logger from cfg: console output
// on stderr unless JSON logging is enabled.
func SetupLogging(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer
	if cfg.JSONLog {
		w = os.Stderr
	} else {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return log.Logger
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Creates the in-memory response cache (unless disabled)
//   - Creates the per-domain rate limiter
//   - Initializes the HTTP client used by the http backend
//   - Registers the chromedp, rod and http backends; browsers start lazily
//   - Creates the scrape service on top of the registry
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger := log.With().Str("component", "app").Logger()

	var memCache cache.Cache
	if cfg.CacheEnabled {
		memCache = cache.NewMemoryCache(cfg.CacheMaxSizeBytes, cfg.CacheTTL)
		logger.Debug().
			Int64("max_size_bytes", cfg.CacheMaxSizeBytes).
			Dur("ttl", cfg.CacheTTL).
			Msg("Memory cache initialized")
	}

	rateLimiter := ratelimit.NewDomainLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Msg("Rate limiter initialized")

	httpClient, err := newHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy configuration: %w", err)
	}

	registry := engine.NewRegistry()
	bc := BrowserConfig(cfg)
	registry.Register(models.BackendChromedp, func() (engine.Fetcher, error) {
		if path := chromedpbackend.FindChrome(bc.ExecPath); path == "" {
			return nil, engine.ErrBrowserNotFound
		}
		return chromedpbackend.New(bc), nil
	})
	registry.Register(models.BackendRod, func() (engine.Fetcher, error) {
		return rodbackend.New(bc), nil
	})
	registry.Register(models.BackendHTTP, func() (engine.Fetcher, error) {
		return static.New(httpClient, cfg.UserAgent), nil
	})
	logger.Debug().Strs("backends", registry.Names()).Str("default", cfg.DefaultBackend).Msg("Backends registered")

	scraper := service.NewScraper(registry, service.Options{
		DefaultBackend: cfg.DefaultBackend,
		UserAgent:      cfg.UserAgent,
		Cache:          memCache,
		CacheTTL:       cfg.CacheTTL,
		Limiter:        rateLimiter,
	})

	app := &Application{
		Config:      cfg,
		Logger:      &logger,
		Cache:       memCache,
		RateLimiter: rateLimiter,
		HTTPClient:  httpClient,
		Registry:    registry,
		Scraper:     scraper,
		startTime:   time.Now(),
	}

	logger.Debug().Msg("Application initialized successfully")
	return app, nil
}

// BrowserConfig derives the launch settings shared by both browser backends.
func BrowserConfig(cfg *config.Config) engine.BrowserConfig {
	return engine.BrowserConfig{
		ExecPath:       cfg.ChromePath,
		Headless:       cfg.BrowserHeadless,
		NoSandbox:      cfg.BrowserNoSandbox,
		UserAgent:      cfg.UserAgent,
		Proxy:          firstProxy(cfg.Proxy),
		PoolSize:       cfg.BrowserPoolSize,
		MaxPages:       cfg.BrowserMaxPages,
		AcquireTimeout: cfg.PoolAcquireTimeout,
	}
}

// newHTTPClient builds the client used by the http backend. With several
// proxies configured, requests rotate across them.
func newHTTPClient(cfg *config.Config) (*http.Client, error) {
	newTransport := func(proxyURL *url.URL) *http.Transport {
		t := &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
		if proxyURL != nil {
			t.Proxy = http.ProxyURL(proxyURL)
		}
		return t
	}

	proxies := proxy.ParseList(cfg.Proxy)
	if len(proxies) == 0 {
		return &http.Client{Timeout: cfg.HTTPTimeout, Transport: newTransport(nil)}, nil
	}

	pool, err := proxy.NewPool(proxies)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("proxies", pool.Len()).Msg("Proxy rotation enabled")
	return &http.Client{Timeout: cfg.HTTPTimeout, Transport: proxy.NewTransport(pool, newTransport)}, nil
}

// firstProxy returns the proxy browsers launch with; a browser takes a
// single proxy for its whole lifetime.
func firstProxy(raw string) string {
	if list := proxy.ParseList(raw); len(list) > 0 {
		return list[0]
	}
	return ""
}

// NewServer wraps the scrape service in an HTTP server using the listener
// settings from the configuration.
func (a *Application) NewServer(version string) *service.Server {
	return service.NewServer(a.Scraper, service.ServerConfig{
		Addr:            a.Config.Addr(),
		ReadTimeout:     a.Config.ReadTimeout,
		WriteTimeout:    a.Config.WriteTimeout,
		ShutdownTimeout: a.Config.ShutdownTimeout,
	}, version)
}

// Close gracefully shuts down the application and all its resources.
//
// It performs the following cleanup steps in order:
//   - Closes every backend that was started (browsers are killed)
//   - Closes the cache
//   - Closes idle HTTP connections
//
// Errors from individual steps are logged and do not stop the others.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Msg("Shutting down application")

	done := make(chan error, 1)
	go func() { done <- a.Registry.Close() }()

	var err error
	select {
	case err = <-done:
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing backends")
		}
	case <-ctx.Done():
		err = ctx.Err()
		a.Logger.Warn().Err(err).Msg("Timed out closing backends")
	}

	if a.Cache != nil {
		a.Cache.Close()
	}
	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return err
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
