// Package static is the plain-HTTP backend. It issues a single GET and never
// runs JavaScript, which makes it useful where no browser is installed.
package static

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/parscrape/internal/engine"
	"github.com/law-makers/parscrape/pkg/models"
)

// Name is the backend name used in requests.
const Name = models.BackendHTTP

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 20 << 20

// Ensure Fetcher implements engine.Fetcher at compile time.
var _ engine.Fetcher = (*Fetcher)(nil)

// Fetcher implements engine.Fetcher with net/http and goquery.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New creates a Fetcher around client. ua is sent unless a request overrides it.
func New(client *http.Client, ua string) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, userAgent: ua}
}

// Name returns the backend name
func (s *Fetcher) Name() string {
	return Name
}

// Fetch performs a GET on opts.URL. Wait strategies other than sleep have no
// meaning without a browser and are ignored.
func (s *Fetcher) Fetch(ctx context.Context, opts models.FetchOptions) (*models.PageData, error) {
	start := time.Now()

	log.Debug().
		Str("url", opts.URL).
		Str("backend", Name).
		Msg("Starting fetch")

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	ua := s.userAgent
	if opts.UserAgent != "" {
		ua = opts.UserAgent
	}
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if engine.ParseWaitType(opts.WaitType) == engine.WaitSleep {
		if err := engine.Sleep(ctx, opts.Sleep); err != nil {
			return nil, err
		}
	}

	data := &models.PageData{
		URL:          opts.URL,
		StatusCode:   resp.StatusCode,
		Title:        title(string(body)),
		HTML:         string(body),
		FetchedAt:    time.Now(),
		ResponseTime: time.Since(start).Milliseconds(),
	}

	log.Debug().
		Str("url", opts.URL).
		Int("status", resp.StatusCode).
		Int64("response_time_ms", data.ResponseTime).
		Int("html_bytes", len(body)).
		Msg("Fetch completed")

	return data, nil
}

// Close releases idle connections.
func (s *Fetcher) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func title(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
