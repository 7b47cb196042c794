// Package chromedp is the Chrome DevTools backend. It renders pages in a
// pooled headless Chrome driven by github.com/chromedp/chromedp.
package chromedp

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/parscrape/internal/engine"
	"github.com/law-makers/parscrape/pkg/models"
)

// Name is the backend name used in requests.
const Name = models.BackendChromedp

// Ensure Fetcher implements engine.Fetcher at compile time.
var _ engine.Fetcher = (*Fetcher)(nil)

// Fetcher renders pages with chromedp. Requests whose headless setting
// matches the configuration share a lazily started BrowserPool; the others
// get a dedicated browser for the duration of the request.
type Fetcher struct {
	cfg  engine.BrowserConfig
	mu   sync.Mutex
	pool *BrowserPool
}

// New creates a Fetcher. No browser is started until the first Fetch.
func New(cfg engine.BrowserConfig) *Fetcher {
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 5 * time.Second
	}
	return &Fetcher{cfg: cfg}
}

// Name returns the backend name
func (f *Fetcher) Name() string {
	return Name
}

func (f *Fetcher) ensurePool() (*BrowserPool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pool != nil {
		return f.pool, nil
	}
	log.Debug().Msg("Initializing browser pool on demand")
	pool, err := NewBrowserPool(f.cfg)
	if err != nil {
		return nil, err
	}
	f.pool = pool
	return pool, nil
}

// Fetch loads opts.URL in a new tab and returns the rendered document.
func (f *Fetcher) Fetch(ctx context.Context, opts models.FetchOptions) (*models.PageData, error) {
	start := time.Now()

	log.Debug().
		Str("url", opts.URL).
		Str("backend", Name).
		Str("wait", opts.WaitType).
		Msg("Starting fetch")

	var tabCtx context.Context

	if opts.Headless == f.cfg.Headless {
		pool, err := f.ensurePool()
		if err != nil {
			return nil, err
		}
		bc, err := pool.Acquire(ctx, f.cfg.AcquireTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire browser from pool: %w", err)
		}
		defer pool.Release(bc)

		var cancelTab context.CancelFunc
		tabCtx, cancelTab = chromedp.NewContext(bc.Ctx)
		defer cancelTab()
	} else {
		execPath := FindChrome(f.cfg.ExecPath)
		if execPath == "" {
			return nil, engine.ErrBrowserNotFound
		}
		allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocatorOptions(f.cfg, execPath, opts.Headless)...)
		defer cancelAlloc()

		var cancelBrowser context.CancelFunc
		tabCtx, cancelBrowser = chromedp.NewContext(allocCtx)
		defer cancelBrowser()

		log.Debug().Bool("headless", opts.Headless).Msg("Created dedicated browser for request")
	}

	// Bound the tab by the request timeout and by the caller's context.
	runCtx, cancel := context.WithTimeout(tabCtx, timeoutOrDefault(opts.Timeout))
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var (
		status atomic.Int64
		idle   = make(chan struct{}, 1)
		html   string
		title  string
	)

	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *network.EventResponseReceived:
			if ev.Type == network.ResourceTypeDocument {
				status.CompareAndSwap(0, ev.Response.Status)
			}
		case *page.EventLifecycleEvent:
			if ev.Name == "networkIdle" {
				select {
				case idle <- struct{}{}:
				default:
				}
			}
		}
	})

	tasks := chromedp.Tasks{
		network.Enable(),
		page.SetLifecycleEventsEnabled(true),
	}
	if opts.UserAgent != "" {
		tasks = append(tasks, emulation.SetUserAgentOverride(opts.UserAgent))
	}
	if len(opts.Headers) > 0 {
		headers := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			headers[k] = v
		}
		tasks = append(tasks, network.SetExtraHTTPHeaders(headers))
	}
	tasks = append(tasks,
		chromedp.Navigate(opts.URL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return f.wait(ctx, opts, idle)
		}),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	if err := chromedp.Run(runCtx, tasks...); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("chromedp execution failed: %w", ctx.Err())
		}
		if runCtx.Err() != nil {
			return nil, fmt.Errorf("chromedp execution failed: %w", runCtx.Err())
		}
		return nil, fmt.Errorf("chromedp execution failed: %w", err)
	}

	elapsed := time.Since(start)
	log.Debug().
		Str("url", opts.URL).
		Int64("status", status.Load()).
		Dur("elapsed", elapsed).
		Int("html_bytes", len(html)).
		Msg("Fetch completed")

	return &models.PageData{
		URL:          opts.URL,
		StatusCode:   int(status.Load()),
		Title:        title,
		HTML:         html,
		FetchedAt:    time.Now(),
		ResponseTime: elapsed.Milliseconds(),
	}, nil
}

// wait applies the post-navigation strategy.
func (f *Fetcher) wait(ctx context.Context, opts models.FetchOptions, idle <-chan struct{}) error {
	switch engine.ParseWaitType(opts.WaitType) {
	case engine.WaitNone:
		return nil

	case engine.WaitIdle:
		t := time.NewTimer(f.cfg.IdleTimeout)
		defer t.Stop()
		select {
		case <-idle:
		case <-t.C:
			log.Debug().Str("url", opts.URL).Msg("Network never went idle, continuing")
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil

	case engine.WaitSelector:
		return chromedp.WaitReady(opts.WaitSelector, chromedp.ByQuery).Do(ctx)

	case engine.WaitText:
		expr := engine.TextPredicate(opts.WaitSelector)
		ticker := time.NewTicker(engine.PollInterval)
		defer ticker.Stop()
		for {
			var found bool
			if err := chromedp.Evaluate(expr, &found).Do(ctx); err != nil {
				return err
			}
			if found {
				return nil
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

	default:
		return engine.Sleep(ctx, opts.Sleep)
	}
}

// Close shuts down the pool if one was started.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pool == nil {
		return nil
	}
	err := f.pool.Close()
	f.pool = nil
	return err
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return models.DefaultTimeout * time.Second
	}
	return d
}
