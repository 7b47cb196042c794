// Package service runs the scrape pipeline (validate, fetch, reduce) and
// exposes it over HTTP.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/law-makers/parscrape/internal/cache"
	"github.com/law-makers/parscrape/internal/engine"
	"github.com/law-makers/parscrape/internal/ratelimit"
	"github.com/law-makers/parscrape/internal/reducer"
	"github.com/law-makers/parscrape/internal/reqctx"
	"github.com/law-makers/parscrape/internal/utils/output"
	"github.com/law-makers/parscrape/pkg/models"
)

// Options configures a Scraper.
type Options struct {
	// DefaultBackend is used when a request names none.
	DefaultBackend string
	// UserAgent is sent by every backend.
	UserAgent string
	// Cache is optional; nil disables response caching.
	Cache    cache.Cache
	CacheTTL time.Duration
	// Limiter is optional; nil disables per-domain pacing.
	Limiter ratelimit.RateLimiter
}

// Scraper turns a ScrapeRequest into a ScrapeResponse.
type Scraper struct {
	registry *engine.Registry
	opts     Options
	validate *validator.Validate
}

// NewScraper creates a Scraper drawing backends from registry.
func NewScraper(registry *engine.Registry, opts Options) *Scraper {
	if opts.DefaultBackend == "" {
		opts.DefaultBackend = models.BackendChromedp
	}
	return &Scraper{
		registry: registry,
		opts:     opts,
		validate: newValidator(),
	}
}

// DefaultBackend returns the backend used when a request names none.
func (s *Scraper) DefaultBackend() string {
	return s.opts.DefaultBackend
}

// Scrape loads req.URL with the requested backend and reduces the page to
// its links and visible text. Failures are returned as *Error.
func (s *Scraper) Scrape(ctx context.Context, req models.ScrapeRequest) (*models.ScrapeResponse, error) {
	start := time.Now()
	logger := reqctx.Logger(ctx)

	applyDefaults(&req, s.opts.DefaultBackend)
	if verr := s.validateRequest(&req); verr != nil {
		logger.Debug().Str("url", req.URL).Str("detail", verr.Detail).Msg("Rejected scrape request")
		return nil, verr
	}

	var key string
	if s.opts.Cache != nil {
		key = cache.Key(req)
		if cached, ok := s.opts.Cache.Get(key); ok {
			resp := *cached
			resp.Cached = true
			resp.ProcessingTime = time.Since(start).Seconds()
			logger.Info().Str("url", req.URL).Str("backend", req.FetchUsing).Msg("Served from cache")
			return &resp, nil
		}
	}

	resp, err := s.scrape(ctx, req, start)
	if err != nil {
		serr := fetchError(err, req.TimeoutSeconds())
		logger.Error().
			Err(err).
			Str("url", req.URL).
			Str("backend", req.FetchUsing).
			Str("type", string(serr.Code)).
			Dur("elapsed", time.Since(start)).
			Msg("Scrape failed")
		return nil, serr
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.Set(key, resp, s.opts.CacheTTL); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	logger.Info().
		Str("url", req.URL).
		Str("backend", resp.FetchUsing).
		Int("links", len(resp.URLs)).
		Int("text_chars", len(resp.Text)).
		Float64("processing_time", resp.ProcessingTime).
		Msg("Scrape complete")

	return resp, nil
}

func (s *Scraper) scrape(ctx context.Context, req models.ScrapeRequest, start time.Time) (*models.ScrapeResponse, error) {
	fetcher, err := s.registry.Get(req.FetchUsing)
	if err != nil {
		return nil, err
	}

	if s.opts.Limiter != nil {
		if err := s.opts.Limiter.Wait(ctx, req.URL); err != nil {
			return nil, err
		}
	}

	timeout := time.Duration(req.TimeoutSeconds()) * time.Second
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := fetcher.Fetch(fetchCtx, models.FetchOptions{
		URL:          req.URL,
		WaitType:     string(engine.ParseWaitType(req.WaitType)),
		WaitSelector: req.WaitSelector,
		Sleep:        req.Sleep(),
		Timeout:      timeout,
		Headless:     req.IsHeadless(),
		Headers:      req.Headers,
		UserAgent:    s.opts.UserAgent,
	})
	if err != nil {
		// A driver may surface a cancelled context as a generic failure.
		if fetchCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, engine.NewEngineError(engine.ErrCodeTimeout, "deadline exceeded", err)
		}
		return nil, err
	}

	if page == nil || strings.TrimSpace(page.HTML) == "" {
		return nil, engine.ErrEmptyContent
	}

	reduced := reducer.Reduce(page.HTML, req.URL)
	if reduced.Text == "" {
		return nil, extractionError()
	}

	resp := &models.ScrapeResponse{
		URL:        req.URL,
		URLs:       reduced.Links,
		Text:       reduced.Text,
		Title:      page.Title,
		StatusCode: page.StatusCode,
		FetchUsing: fetcher.Name(),
	}

	if req.IncludeMarkdown {
		md, err := output.Markdown(page.HTML, req.URL, req.KeepImages())
		if err != nil {
			return nil, engine.NewEngineError(engine.ErrCodeParseError, "markdown conversion", err)
		}
		resp.Markdown = md
	}

	resp.ProcessingTime = time.Since(start).Seconds()
	return resp, nil
}
