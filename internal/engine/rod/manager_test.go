package rod

import (
	"sync"
	"testing"

	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/parscrape/internal/engine"
)

// fakeBrowsers hands out generations without starting Chrome and records
// which ones were closed.
type fakeBrowsers struct {
	mu       sync.Mutex
	launched int
	closed   map[int]int
}

func (f *fakeBrowsers) launch() (*generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launched++
	pid := 1000 + f.launched
	return &generation{pid: pid, close: func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.closed[pid]++
		return nil
	}}, nil
}

func (f *fakeBrowsers) closedCount(pid int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed[pid]
}

func newFakeManager(maxPages int) (*BrowserManager, *fakeBrowsers) {
	fb := &fakeBrowsers{closed: make(map[int]int)}
	return newManager(engine.BrowserConfig{MaxPages: maxPages}, true, fb.launch), fb
}

func TestManager_RecycleWaitsForOpenPages(t *testing.T) {
	bm, fb := newFakeManager(2)

	first, err := bm.acquire()
	require.NoError(t, err)
	second, err := bm.acquire()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1001, bm.LauncherPID())

	// Budget spent: the next page goes to a new browser while two pages
	// are still open on the old one.
	third, err := bm.acquire()
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 1002, bm.LauncherPID())
	assert.Equal(t, 0, fb.closedCount(1001), "old browser closed under open pages")

	bm.release(first)
	assert.Equal(t, 0, fb.closedCount(1001))
	bm.release(second)
	assert.Equal(t, 1, fb.closedCount(1001), "old browser should close with its last page")

	bm.release(third)
	assert.Equal(t, 0, fb.closedCount(1002), "current browser stays open")

	require.NoError(t, bm.Close())
	assert.Equal(t, 1, fb.closedCount(1002))
	assert.Equal(t, 1, fb.closedCount(1001))
}

func TestManager_RecycleIdleBrowserImmediately(t *testing.T) {
	bm, fb := newFakeManager(1)

	g, err := bm.acquire()
	require.NoError(t, err)
	bm.release(g)

	_, err = bm.acquire()
	require.NoError(t, err)
	assert.Equal(t, 1, fb.closedCount(1001))
}

func TestManager_CloseIncludesRetired(t *testing.T) {
	bm, fb := newFakeManager(1)

	_, err := bm.acquire()
	require.NoError(t, err)
	_, err = bm.acquire()
	require.NoError(t, err)

	require.NoError(t, bm.Close())
	require.NoError(t, bm.Close())
	assert.Equal(t, 1, fb.closedCount(1001))
	assert.Equal(t, 1, fb.closedCount(1002))

	_, err = bm.acquire()
	assert.Error(t, err)
	assert.Equal(t, 0, bm.LauncherPID())
}

func TestManager_ConcurrentPages(t *testing.T) {
	bm, fb := newFakeManager(3)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, release, err := bm.Acquire()
			if !assert.NoError(t, err) {
				return
			}
			release()
			release()
		}()
	}
	wg.Wait()

	require.NoError(t, bm.Close())
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for pid := 1001; pid <= 1000+fb.launched; pid++ {
		assert.Equal(t, 1, fb.closed[pid], "browser %d closed %d times", pid, fb.closed[pid])
	}
}

func TestNewLauncher_Flags(t *testing.T) {
	bm := newManager(engine.BrowserConfig{
		ExecPath:   "/opt/chrome/chrome",
		NoSandbox:  true,
		Proxy:      "http://127.0.0.1:3128",
		ExtraFlags: []string{"--lang=fr-FR", "mute-audio", "--window-size=800,600", "--", "=orphan"},
	}, true, nil)

	l := bm.newLauncher()

	assert.Equal(t, "/opt/chrome/chrome", l.Get(flags.Bin))
	assert.Equal(t, "http://127.0.0.1:3128", l.Get(flags.ProxyServer))
	assert.Equal(t, "fr-FR", l.Get(flags.Flag("lang")))
	assert.Equal(t, "800,600", l.Get(flags.Flag("window-size")))
	assert.True(t, l.Has(flags.Flag("mute-audio")))
	assert.True(t, l.Has(flags.NoSandbox))
	assert.True(t, l.Has(flags.Headless))
	assert.False(t, l.Has(flags.Flag("")))
	assert.False(t, l.Has(flags.Flag("orphan")))
}

func TestNewLauncher_Headful(t *testing.T) {
	bm := newManager(engine.BrowserConfig{ExecPath: "/opt/chrome/chrome"}, false, nil)

	l := bm.newLauncher()

	assert.False(t, l.Has(flags.Headless))
	assert.False(t, l.Has(flags.NoSandbox))
}
