package models

import "time"

// Backend names accepted in ScrapeRequest.FetchUsing.
const (
	BackendChromedp = "chromedp"
	BackendRod      = "rod"
	BackendHTTP     = "http"
)

// Wait strategies accepted in ScrapeRequest.WaitType.
const (
	WaitSleep    = "sleep"
	WaitIdle     = "idle"
	WaitNone     = "none"
	WaitSelector = "selector"
	WaitText     = "text"
)

// Request field bounds and defaults (seconds).
const (
	DefaultSleepTime = 2
	MaxSleepTime     = 30
	DefaultTimeout   = 10
	MinTimeout       = 1
	MaxTimeout       = 60
)

// ScrapeRequest is the body accepted by POST /scrape.
//
// Pointer fields distinguish "absent" from a zero value so defaults can be
// applied after decoding.
type ScrapeRequest struct {
	URL             string            `json:"url" validate:"required"`
	FetchUsing      string            `json:"fetch_using,omitempty"`
	SleepTime       *int              `json:"sleep_time,omitempty" validate:"omitnil,min=0,max=30"`
	Timeout         *int              `json:"timeout,omitempty" validate:"omitnil,min=1,max=60"`
	Headless        *bool             `json:"headless,omitempty"`
	WaitType        string            `json:"wait_type,omitempty" validate:"omitempty,oneof=sleep idle none selector text"`
	WaitSelector    string            `json:"wait_selector,omitempty"`
	IncludeMarkdown bool              `json:"include_markdown,omitempty"`
	IncludeImages   *bool             `json:"include_images,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
}

// Sleep returns the post-navigation sleep, falling back to the default.
func (r ScrapeRequest) Sleep() time.Duration {
	if r.SleepTime == nil {
		return DefaultSleepTime * time.Second
	}
	return time.Duration(*r.SleepTime) * time.Second
}

// TimeoutSeconds returns the fetch timeout in whole seconds.
func (r ScrapeRequest) TimeoutSeconds() int {
	if r.Timeout == nil {
		return DefaultTimeout
	}
	return *r.Timeout
}

// IsHeadless reports whether the browser should run without a window.
func (r ScrapeRequest) IsHeadless() bool {
	return r.Headless == nil || *r.Headless
}

// KeepImages reports whether images survive the markdown rendering.
func (r ScrapeRequest) KeepImages() bool {
	return r.IncludeImages == nil || *r.IncludeImages
}

// ScrapeResponse is the body returned by a successful POST /scrape.
type ScrapeResponse struct {
	URL            string   `json:"url"`
	URLs           []string `json:"urls"`
	Text           string   `json:"text"`
	Markdown       string   `json:"markdown,omitempty"`
	Title          string   `json:"title,omitempty"`
	StatusCode     int      `json:"status_code,omitempty"`
	FetchUsing     string   `json:"fetch_using"`
	ProcessingTime float64  `json:"processing_time"`
	Cached         bool     `json:"cached,omitempty"`
}

// ErrorResponse is the body returned for every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

// FetchOptions is what a backend receives for one page load.
type FetchOptions struct {
	URL          string
	WaitType     string
	WaitSelector string
	Sleep        time.Duration
	Timeout      time.Duration
	Headless     bool
	Headers      map[string]string
	UserAgent    string
}

// PageData is what a backend returns for one page load.
type PageData struct {
	URL          string    `json:"url"`
	StatusCode   int       `json:"status_code"`
	Title        string    `json:"title,omitempty"`
	HTML         string    `json:"html,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
	ResponseTime int64     `json:"response_time_ms"`
}

// BatchResult records the outcome of one URL in a batch run.
type BatchResult struct {
	URL      string          `json:"url"`
	Response *ScrapeResponse `json:"response,omitempty"`
	Err      error           `json:"-"`
	Error    string          `json:"error,omitempty"`
	Attempts int             `json:"attempts"`
	Duration time.Duration   `json:"duration"`
	File     string          `json:"file,omitempty"`
}
