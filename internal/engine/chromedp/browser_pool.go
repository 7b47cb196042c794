// internal/engine/chromedp/browser_pool.go
package chromedp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/parscrape/internal/engine"
)

// ErrPoolClosed is returned by Acquire once Close has been called.
var ErrPoolClosed = errors.New("browser pool is closed")

// BrowserPool keeps a fixed number of warm browser contexts. Each request
// opens its own tab inside an acquired browser, so the pool bounds how many
// pages render at once.
type BrowserPool struct {
	size        int
	contexts    chan *BrowserContext
	allocCtx    context.Context
	allocCancel context.CancelFunc
	mu          sync.Mutex
	closed      bool
}

// BrowserContext wraps a chromedp browser context with its cancel function
type BrowserContext struct {
	Ctx    context.Context
	Cancel context.CancelFunc
}

// NewBrowserPool starts cfg.PoolSize browsers and waits for each one to load
// about:blank.
func NewBrowserPool(cfg engine.BrowserConfig) (*BrowserPool, error) {
	size := cfg.PoolSize
	if size <= 0 {
		size = 1
	}

	execPath := FindChrome(cfg.ExecPath)
	if execPath == "" {
		return nil, engine.ErrBrowserNotFound
	}

	log.Debug().
		Int("size", size).
		Str("chrome", execPath).
		Str("version", ChromeVersion(execPath)).
		Bool("headless", cfg.Headless).
		Msg("Creating browser pool")

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg, execPath, cfg.Headless)...)

	pool := &BrowserPool{
		size:        size,
		contexts:    make(chan *BrowserContext, size),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}

	for i := 0; i < size; i++ {
		browserCtx, browserCancel := chromedp.NewContext(allocCtx)

		// The first Run binds the browser's lifetime to browserCtx.
		if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
			browserCancel()
			pool.Close()
			return nil, fmt.Errorf("failed to warm up browser context %d: %w", i, err)
		}

		pool.contexts <- &BrowserContext{Ctx: browserCtx, Cancel: browserCancel}
		log.Debug().Int("context_id", i).Msg("Browser context initialized")
	}

	log.Info().Int("pool_size", size).Msg("Browser pool ready")
	return pool, nil
}

// Acquire takes a browser from the pool, waiting up to timeout or until ctx
// is done. A zero timeout waits on ctx alone.
func (bp *BrowserPool) Acquire(ctx context.Context, timeout time.Duration) (*BrowserContext, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	select {
	case bc, ok := <-bp.contexts:
		if !ok {
			return nil, ErrPoolClosed
		}
		bp.mu.Lock()
		defer bp.mu.Unlock()
		if bp.closed {
			bc.Cancel()
			return nil, ErrPoolClosed
		}
		return bc, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("timeout waiting for available browser context: %w", ctx.Err())
	}
}

// Release returns a browser to the pool. A browser whose context has died
// is dropped and replaced so the pool keeps its size.
func (bp *BrowserPool) Release(bc *BrowserContext) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		bc.Cancel()
		return
	}

	if bc.Ctx.Err() != nil {
		log.Warn().Msg("Browser context died, replacing it")
		bc = bp.replacement()
		if bc == nil {
			return
		}
	}

	select {
	case bp.contexts <- bc:
	default:
		bc.Cancel()
		log.Warn().Msg("Browser pool full, discarding context")
	}
}

// replacement starts a fresh browser. Must be called with mu held.
func (bp *BrowserPool) replacement() *BrowserContext {
	browserCtx, browserCancel := chromedp.NewContext(bp.allocCtx)
	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		log.Error().Err(err).Msg("Failed to replace browser context")
		return nil
	}
	return &BrowserContext{Ctx: browserCtx, Cancel: browserCancel}
}

// Close shuts down all browser contexts and the allocator
func (bp *BrowserPool) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil
	}
	bp.closed = true

	close(bp.contexts)
	for bc := range bp.contexts {
		bc.Cancel()
	}
	bp.allocCancel()

	log.Info().Msg("Browser pool closed")
	return nil
}

// Size returns the pool size
func (bp *BrowserPool) Size() int {
	return bp.size
}

// Available returns the number of idle browsers
func (bp *BrowserPool) Available() int {
	return len(bp.contexts)
}
