// Package rod is the go-rod backend: each fetch opens a page in a recycled
// Chrome owned by a BrowserManager.
package rod

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/parscrape/internal/engine"
	"github.com/law-makers/parscrape/pkg/models"
)

// Name is the backend name used in requests.
const Name = models.BackendRod

// Ensure Fetcher implements engine.Fetcher at compile time.
var _ engine.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML with go-rod. It keeps one BrowserManager
// per headless mode, each started on first use.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	cfg      engine.BrowserConfig
	mu       sync.Mutex
	managers map[bool]*BrowserManager
}

// New creates a Fetcher. No browser is launched until the first Fetch.
func New(cfg engine.BrowserConfig) *Fetcher {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 5 * time.Second
	}
	return &Fetcher{cfg: cfg, managers: make(map[bool]*BrowserManager)}
}

// Name returns the backend name
func (f *Fetcher) Name() string {
	return Name
}

func (f *Fetcher) manager(headless bool) (*BrowserManager, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if m, ok := f.managers[headless]; ok {
		return m, nil
	}
	m, err := NewBrowserManager(f.cfg, headless)
	if err != nil {
		return nil, err
	}
	f.managers[headless] = m
	return m, nil
}

// Fetch navigates to opts.URL, applies the wait strategy and returns the
// rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, opts models.FetchOptions) (*models.PageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	log.Debug().
		Str("url", opts.URL).
		Str("backend", Name).
		Str("wait", opts.WaitType).
		Msg("Starting fetch")

	m, err := f.manager(opts.Headless)
	if err != nil {
		return nil, err
	}
	browser, release, err := m.Acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	defer page.Close()

	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	page = page.Context(runCtx)

	data, err := f.load(runCtx, page, opts)
	if err != nil {
		if runCtx.Err() != nil {
			return nil, fmt.Errorf("rod fetch failed: %w", runCtx.Err())
		}
		return nil, fmt.Errorf("rod fetch failed: %w", err)
	}

	data.ResponseTime = time.Since(start).Milliseconds()
	log.Debug().
		Str("url", opts.URL).
		Int("status", data.StatusCode).
		Int64("response_time_ms", data.ResponseTime).
		Int("html_bytes", len(data.HTML)).
		Msg("Fetch completed")

	return data, nil
}

func (f *Fetcher) load(ctx context.Context, page *rod.Page, opts models.FetchOptions) (*models.PageData, error) {
	if opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			return nil, fmt.Errorf("setting user agent: %w", err)
		}
	}
	if len(opts.Headers) > 0 {
		pairs := make([]string, 0, 2*len(opts.Headers))
		for k, v := range opts.Headers {
			pairs = append(pairs, k, v)
		}
		cleanup, err := page.SetExtraHeaders(pairs)
		if err != nil {
			return nil, fmt.Errorf("setting extra headers: %w", err)
		}
		defer cleanup()
	}

	// Record the status of the first document response.
	var status atomic.Int64
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return nil, fmt.Errorf("enabling network events: %w", err)
	}
	go page.EachEvent(func(e *proto.NetworkResponseReceived) {
		if e.Type == proto.NetworkResourceTypeDocument {
			status.CompareAndSwap(0, int64(e.Response.Status))
		}
	})()

	wait := engine.ParseWaitType(opts.WaitType)
	var waitIdle func()
	if wait == engine.WaitIdle {
		waitIdle = page.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	}

	if err := page.Navigate(opts.URL); err != nil {
		return nil, err
	}
	if err := page.WaitLoad(); err != nil {
		return nil, err
	}

	switch wait {
	case engine.WaitNone:
	case engine.WaitIdle:
		f.waitIdle(ctx, waitIdle)
	case engine.WaitSelector:
		el, err := page.Element(opts.WaitSelector)
		if err != nil {
			return nil, err
		}
		if err := el.WaitVisible(); err != nil {
			return nil, err
		}
	case engine.WaitText:
		js := "() => " + engine.TextPredicate(opts.WaitSelector)
		if err := page.Wait(rod.Eval(js)); err != nil {
			return nil, err
		}
	default:
		if err := engine.Sleep(ctx, opts.Sleep); err != nil {
			return nil, err
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}
	info, err := page.Info()
	if err != nil {
		return nil, err
	}

	return &models.PageData{
		URL:        opts.URL,
		StatusCode: int(status.Load()),
		Title:      info.Title,
		HTML:       html,
		FetchedAt:  time.Now(),
	}, nil
}

// waitIdle waits for network idle but never longer than IdleTimeout.
func (f *Fetcher) waitIdle(ctx context.Context, waitFn func()) {
	done := make(chan struct{})
	go func() {
		waitFn()
		close(done)
	}()

	t := time.NewTimer(f.cfg.IdleTimeout)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
		log.Debug().Msg("Network never went idle, continuing")
	case <-ctx.Done():
	}
}

// Close releases every browser this fetcher launched.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var firstErr error
	for headless, m := range f.managers {
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(f.managers, headless)
	}
	return firstErr
}
