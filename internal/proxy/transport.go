package proxy

import (
	"net/http"
	"net/url"
	"sync"
)

// Transport is an http.RoundTripper that sends each request through the
// next proxy of a Pool. A proxy whose round trip fails is marked failed.
type Transport struct {
	pool *Pool
	base func(*url.URL) *http.Transport

	mu         sync.Mutex
	transports map[string]*http.Transport
}

// NewTransport creates a Transport over pool. newBase builds the underlying
// transport for one proxy and is called once per proxy.
func NewTransport(pool *Pool, newBase func(proxy *url.URL) *http.Transport) *Transport {
	return &Transport{
		pool:       pool,
		base:       newBase,
		transports: make(map[string]*http.Transport),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	proxy := t.pool.Next()
	rt := t.transportFor(proxy)

	resp, err := rt.RoundTrip(req)
	if proxy != nil {
		if err != nil {
			t.pool.MarkFailed(proxy)
		} else {
			t.pool.MarkHealthy(proxy)
		}
	}
	return resp, err
}

// CloseIdleConnections closes idle connections on every proxy transport.
func (t *Transport) CloseIdleConnections() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tr := range t.transports {
		tr.CloseIdleConnections()
	}
}

func (t *Transport) transportFor(proxy *url.URL) *http.Transport {
	key := ""
	if proxy != nil {
		key = proxy.String()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if tr, ok := t.transports[key]; ok {
		return tr
	}
	tr := t.base(proxy)
	t.transports[key] = tr
	return tr
}
