// Package ratelimit throttles page loads per host so repeated scrapes of one
// site do not hammer it.
package ratelimit

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter gates requests by the host of their URL.
type RateLimiter interface {
	// Wait blocks until a request to urlStr may proceed or ctx is done.
	Wait(ctx context.Context, urlStr string) error

	// Allow reports whether a request to urlStr may proceed right now.
	Allow(urlStr string) bool
}

// DomainLimiter keeps one token bucket per host.
type DomainLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	perHost  rate.Limit
	burst    int
}

// NewDomainLimiter allows requestsPerSecond per host with the given burst.
// A non-positive rate disables limiting.
func NewDomainLimiter(requestsPerSecond float64, burst int) *DomainLimiter {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  limit,
		burst:    burst,
	}
}

// Wait blocks until the host of urlStr has a token.
func (dl *DomainLimiter) Wait(ctx context.Context, urlStr string) error {
	host := hostOf(urlStr)
	if host == "" {
		// Unparseable URLs are rejected elsewhere.
		return nil
	}
	return dl.limiter(host).Wait(ctx)
}

// Allow takes a token for the host of urlStr if one is available.
func (dl *DomainLimiter) Allow(urlStr string) bool {
	host := hostOf(urlStr)
	if host == "" {
		return true
	}
	return dl.limiter(host).Allow()
}

// SetLimit overrides the rate for one host.
func (dl *DomainLimiter) SetLimit(host string, requestsPerSecond float64, burst int) {
	host = strings.ToLower(host)

	dl.mu.Lock()
	defer dl.mu.Unlock()

	if l, ok := dl.limiters[host]; ok {
		l.SetLimit(rate.Limit(requestsPerSecond))
		l.SetBurst(burst)
		return
	}
	dl.limiters[host] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Hosts returns how many hosts currently have a bucket.
func (dl *DomainLimiter) Hosts() int {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return len(dl.limiters)
}

func (dl *DomainLimiter) limiter(host string) *rate.Limiter {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	l, ok := dl.limiters[host]
	if !ok {
		l = rate.NewLimiter(dl.perHost, dl.burst)
		dl.limiters[host] = l
	}
	return l
}

// hostOf returns the lowercased host without port, or "".
func hostOf(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
