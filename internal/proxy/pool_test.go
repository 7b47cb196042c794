package proxy

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func mustPool(t *testing.T, proxies ...string) *Pool {
	t.Helper()
	p, err := NewPool(proxies)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	return p
}

func TestPool_Rotation(t *testing.T) {
	pool := mustPool(t, "http://p1:8080", "http://p2:8080", "http://p3:8080")

	want := []string{"p1:8080", "p2:8080", "p3:8080", "p1:8080"}
	for i, w := range want {
		if got := pool.Next().Host; got != w {
			t.Errorf("call %d: expected %s, got %s", i, w, got)
		}
	}
}

func TestPool_SkipsFailed(t *testing.T) {
	pool := mustPool(t, "http://p1:8080", "http://p2:8080", "http://p3:8080")
	now := time.Now()
	pool.now = func() time.Time { return now }

	p1 := pool.Next()
	p2, _ := url.Parse("http://p2:8080")
	pool.MarkFailed(p2)

	if got := pool.Next().Host; got != "p3:8080" {
		t.Errorf("expected p3 (skipping p2), got %s", got)
	}
	if got := pool.Next(); got.String() != p1.String() {
		t.Errorf("expected p1, got %s", got)
	}
	if got := pool.Next().Host; got != "p3:8080" {
		t.Errorf("expected p3, got %s", got)
	}

	// After the cooldown p2 is back in rotation.
	now = now.Add(FailureCooldown + time.Second)
	if got := pool.Next().Host; got != "p1:8080" {
		t.Errorf("expected p1, got %s", got)
	}
	if got := pool.Next().Host; got != "p2:8080" {
		t.Errorf("expected p2 after cooldown, got %s", got)
	}
}

func TestPool_MarkHealthy(t *testing.T) {
	pool := mustPool(t, "http://p1:8080", "http://p2:8080")
	p2, _ := url.Parse("http://p2:8080")

	pool.MarkFailed(p2)
	pool.MarkHealthy(p2)

	pool.Next()
	if got := pool.Next().Host; got != "p2:8080" {
		t.Errorf("expected p2 after MarkHealthy, got %s", got)
	}
}

func TestPool_AllFailed(t *testing.T) {
	pool := mustPool(t, "http://p1:8080", "http://p2:8080")
	for i := 0; i < 2; i++ {
		pool.MarkFailed(pool.Next())
	}
	if got := pool.Next(); got == nil {
		t.Error("expected a proxy even when all have failed")
	}
}

func TestPool_Empty(t *testing.T) {
	pool := mustPool(t)
	if got := pool.Next(); got != nil {
		t.Errorf("expected nil from empty pool, got %s", got)
	}
}

func TestParse(t *testing.T) {
	valid := []string{"http://127.0.0.1:8080", "https://proxy.local", "socks5://user:pw@10.0.0.1:1080"}
	for _, raw := range valid {
		if _, err := Parse(raw); err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", raw, err)
		}
	}
	invalid := []string{"ftp://proxy:21", "localhost:8080", "http://", "://bad"}
	for _, raw := range invalid {
		if _, err := Parse(raw); err == nil {
			t.Errorf("Parse(%q) expected error", raw)
		}
	}
	if _, err := NewPool([]string{"http://ok:1", "nope"}); err == nil {
		t.Error("NewPool should reject invalid entries")
	}
}

func TestParseList(t *testing.T) {
	got := ParseList(" http://a:1, ,http://b:2 ,")
	if len(got) != 2 || got[0] != "http://a:1" || got[1] != "http://b:2" {
		t.Errorf("unexpected list: %q", got)
	}
	if got := ParseList(""); len(got) != 0 {
		t.Errorf("expected empty list, got %q", got)
	}
}

// proxyServer answers every proxied request with its own name.
func proxyServer(name string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, name)
	}))
}

func TestTransport_RotatesAndMarksFailures(t *testing.T) {
	a := proxyServer("a")
	defer a.Close()
	b := proxyServer("b")
	defer b.Close()
	dead := proxyServer("dead")
	deadURL := dead.URL
	dead.Close()

	pool := mustPool(t, a.URL, deadURL, b.URL)
	client := &http.Client{
		Timeout: 5 * time.Second,
		Transport: NewTransport(pool, func(p *url.URL) *http.Transport {
			return &http.Transport{Proxy: http.ProxyURL(p)}
		}),
	}

	get := func() (string, error) {
		resp, err := client.Get("http://upstream.invalid/page")
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		return string(body), err
	}

	if got, err := get(); err != nil || got != "a" {
		t.Fatalf("first request: got %q, %v", got, err)
	}
	if _, err := get(); err == nil {
		t.Fatal("expected the dead proxy to fail")
	}
	if got, err := get(); err != nil || got != "b" {
		t.Fatalf("third request: got %q, %v", got, err)
	}

	// The dead proxy is now skipped.
	for i := 0; i < 4; i++ {
		if _, err := get(); err != nil {
			t.Fatalf("request %d went through the failed proxy: %v", i, err)
		}
	}
}
