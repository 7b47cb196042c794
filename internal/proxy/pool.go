// Package proxy rotates outbound requests across a list of proxies, skipping
// ones that failed recently.
package proxy

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// FailureCooldown is how long a failed proxy is skipped.
const FailureCooldown = 5 * time.Minute

// Pool manages a list of proxies with rotation and failure tracking
type Pool struct {
	proxies []*url.URL
	index   int
	mu      sync.Mutex
	failed  map[string]time.Time
	now     func() time.Time
}

// ParseList splits a comma-separated proxy list, dropping blanks.
func ParseList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Parse validates a single proxy URL. Supported schemes are http, https,
// socks5 and socks5h.
func Parse(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("proxy URL %q has no host", raw)
	}
	return u, nil
}

// NewPool creates a Pool from proxy URLs. Any invalid entry is an error.
func NewPool(proxies []string) (*Pool, error) {
	p := &Pool{
		failed: make(map[string]time.Time),
		now:    time.Now,
	}
	for _, raw := range proxies {
		u, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		p.proxies = append(p.proxies, u)
	}
	return p, nil
}

// Len returns the number of proxies in the pool.
func (p *Pool) Len() int {
	return len(p.proxies)
}

// Next returns the next healthy proxy, or nil for an empty pool. When every
// proxy failed recently it returns the next one in order anyway.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return nil
	}

	start := p.index
	for {
		proxy := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		if failTime, ok := p.failed[proxy.String()]; ok {
			if p.now().Sub(failTime) < FailureCooldown {
				if p.index == start {
					return proxy
				}
				continue
			}
			delete(p.failed, proxy.String())
		}
		return proxy
	}
}

// MarkFailed marks a proxy as failed so it will be skipped for a while
func (p *Pool) MarkFailed(proxy *url.URL) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[proxy.String()] = p.now()
}

// MarkHealthy clears the failure status of a proxy
func (p *Pool) MarkHealthy(proxy *url.URL) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, proxy.String())
}
