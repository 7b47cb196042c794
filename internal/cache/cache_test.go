package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/law-makers/parscrape/pkg/models"
)

func response(url, text string) *models.ScrapeResponse {
	return &models.ScrapeResponse{URL: url, URLs: []string{url + "/a"}, Text: text, FetchUsing: "http"}
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(1<<20, time.Minute)
	defer c.Close()

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	want := response("https://example.com", "hello")
	if err := c.Set("k", want, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Text != "hello" {
		t.Errorf("unexpected cached text %q", got.Text)
	}

	stats := c.Stats()
	if stats["hits"].(uint64) != 1 || stats["misses"].(uint64) != 1 {
		t.Errorf("unexpected stats %v", stats)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(1<<20, time.Minute)
	defer c.Close()

	_ = c.Set("k", response("https://example.com", "x"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if c.Stats()["entries"].(int) != 0 {
		t.Errorf("expired entry should be removed on read")
	}
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	big := strings.Repeat("x", 1000)
	// Room for two entries of ~1.3KB each.
	c := NewMemoryCache(3000, time.Minute)
	defer c.Close()

	_ = c.Set("a", response("https://a.com", big), 0)
	_ = c.Set("b", response("https://b.com", big), 0)
	c.Get("a") // a is now most recent
	_ = c.Set("c", response("https://c.com", big), 0)

	if _, ok := c.Get("b"); ok {
		t.Errorf("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Errorf("expected a to survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Errorf("expected c to be present")
	}
}

func TestMemoryCache_OverwriteKeepsSizeConsistent(t *testing.T) {
	c := NewMemoryCache(1<<20, time.Minute)
	defer c.Close()

	_ = c.Set("k", response("https://example.com", strings.Repeat("x", 500)), 0)
	_ = c.Set("k", response("https://example.com", "y"), 0)

	stats := c.Stats()
	if stats["entries"].(int) != 1 {
		t.Errorf("expected one entry, got %v", stats["entries"])
	}
	if size := stats["size_bytes"].(int64); size > 500 {
		t.Errorf("size not updated on overwrite: %d", size)
	}

	_ = c.Delete("k")
	if c.Stats()["size_bytes"].(int64) != 0 {
		t.Errorf("expected zero size after delete")
	}
}

func TestKey(t *testing.T) {
	base := models.ScrapeRequest{URL: "https://example.com", FetchUsing: "chromedp", WaitType: "sleep"}
	same := base
	if Key(base) != Key(same) {
		t.Fatal("identical requests must share a key")
	}

	variants := []models.ScrapeRequest{
		{URL: "https://example.com/other", FetchUsing: "chromedp", WaitType: "sleep"},
		{URL: "https://example.com", FetchUsing: "rod", WaitType: "sleep"},
		{URL: "https://example.com", FetchUsing: "chromedp", WaitType: "idle"},
		{URL: "https://example.com", FetchUsing: "chromedp", WaitType: "sleep", IncludeMarkdown: true},
		{URL: "https://example.com", FetchUsing: "chromedp", WaitType: "sleep", Headers: map[string]string{"A": "b"}},
	}
	for _, v := range variants {
		if Key(v) == Key(base) {
			t.Errorf("expected distinct key for %+v", v)
		}
	}

	h1 := models.ScrapeRequest{URL: "u", Headers: map[string]string{"A": "1", "B": "2"}}
	h2 := models.ScrapeRequest{URL: "u", Headers: map[string]string{"B": "2", "A": "1"}}
	if Key(h1) != Key(h2) {
		t.Errorf("header order must not affect the key")
	}
}
