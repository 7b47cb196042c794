package rod

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/parscrape/internal/engine"
)

// DefaultMaxPages is the default number of pages before browser recycling.
const DefaultMaxPages = 75

// generation is one launched browser. Pages opened on it are counted so a
// recycled browser is only closed once its last page is released.
type generation struct {
	browser *rod.Browser
	pid     int
	close   func() error

	pages  int64 // pages handed out over its lifetime
	active int   // pages currently open
}

// BrowserManager owns a launched browser and replaces it after MaxPages
// pages, since Chrome's memory baseline only grows under sustained load.
// Pages still open on a replaced browser keep working until released.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	cfg      engine.BrowserConfig
	headless bool
	maxPages int64
	launch   func() (*generation, error)

	mu      sync.Mutex
	current *generation
	retired map[*generation]struct{}
	closed  bool
}

// NewBrowserManager launches a browser configured from cfg. headless
// overrides cfg.Headless so one config can serve both modes.
func NewBrowserManager(cfg engine.BrowserConfig, headless bool) (*BrowserManager, error) {
	bm := newManager(cfg, headless, nil)
	bm.launch = bm.launchBrowser

	g, err := bm.launch()
	if err != nil {
		return nil, err
	}
	bm.current = g
	return bm, nil
}

func newManager(cfg engine.BrowserConfig, headless bool, launch func() (*generation, error)) *BrowserManager {
	maxPages := int64(cfg.MaxPages)
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &BrowserManager{
		cfg:      cfg,
		headless: headless,
		maxPages: maxPages,
		launch:   launch,
		retired:  make(map[*generation]struct{}),
	}
}

// Acquire returns the browser to open one page on, recycling first when the
// page budget is spent. The caller must call release once the page is closed.
func (bm *BrowserManager) Acquire() (browser *rod.Browser, release func(), err error) {
	g, err := bm.acquire()
	if err != nil {
		return nil, nil, err
	}
	var once sync.Once
	return g.browser, func() { once.Do(func() { bm.release(g) }) }, nil
}

func (bm *BrowserManager) acquire() (*generation, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil, fmt.Errorf("browser manager is closed")
	}
	if bm.current == nil {
		g, err := bm.launch()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", engine.ErrBrowserCrash, err)
		}
		bm.current = g
	} else if bm.current.pages >= bm.maxPages {
		bm.recycle()
	}

	g := bm.current
	g.pages++
	g.active++
	return g, nil
}

func (bm *BrowserManager) release(g *generation) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	g.active--
	if g.active > 0 || g == bm.current {
		return
	}
	if _, ok := bm.retired[g]; ok {
		delete(bm.retired, g)
		if err := g.close(); err != nil {
			log.Debug().Err(err).Int("pid", g.pid).Msg("Closing recycled browser")
		}
	}
}

// recycle keeps the current browser if the new one fails to launch.
// Must be called with mu held.
func (bm *BrowserManager) recycle() {
	next, err := bm.launch()
	if err != nil {
		log.Warn().Err(err).Msg("Browser recycle failed, keeping current browser")
		return
	}

	old := bm.current
	bm.current = next
	if old.active == 0 {
		_ = old.close()
	} else {
		bm.retired[old] = struct{}{}
	}
	log.Debug().
		Int64("max_pages", bm.maxPages).
		Int("old_pid", old.pid).
		Int("pid", next.pid).
		Int("open_pages", old.active).
		Msg("Rod browser recycled")
}

// Close releases every browser, including recycled ones with pages still
// open. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true

	var errs []error
	if bm.current != nil {
		errs = append(errs, bm.current.close())
		bm.current = nil
	}
	for g := range bm.retired {
		errs = append(errs, g.close())
		delete(bm.retired, g)
	}
	return errors.Join(errs...)
}

// LauncherPID returns the process ID of the current browser, or 0.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.current == nil {
		return 0
	}
	return bm.current.pid
}

func (bm *BrowserManager) newLauncher() *launcher.Launcher {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(bm.headless).
		NoSandbox(bm.cfg.NoSandbox)

	if path := bm.cfg.ExecPath; path != "" {
		l = l.Bin(path)
	} else if path, found := launcher.LookPath(); found {
		l = l.Bin(path)
	}
	if bm.cfg.Proxy != "" {
		l = l.Proxy(bm.cfg.Proxy)
	}
	for _, f := range bm.cfg.ExtraFlags {
		name, value, hasValue := strings.Cut(strings.TrimLeft(f, "-"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			l = l.Set(flags.Flag(name), value)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	return l
}

func (bm *BrowserManager) launchBrowser() (*generation, error) {
	l := bm.newLauncher()

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	log.Debug().Bool("headless", bm.headless).Int("pid", l.PID()).Msg("Rod browser launched")

	return &generation{
		browser: browser,
		pid:     l.PID(),
		close: func() error {
			err := browser.Close()
			l.Kill()
			return err
		},
	}, nil
}
