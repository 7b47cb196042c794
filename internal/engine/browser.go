package engine

import (
	"encoding/json"
	"fmt"
	"time"
)

// BrowserConfig is handed to each browser backend at construction. Backends
// never read global state or environment on their own; everything they need
// to launch a browser is here.
type BrowserConfig struct {
	ExecPath       string
	Headless       bool
	NoSandbox      bool
	UserAgent      string
	Proxy          string
	PoolSize       int
	MaxPages       int
	AcquireTimeout time.Duration
	IdleTimeout    time.Duration
	ExtraFlags     []string
}

// TextPredicate returns a JavaScript expression that is true once the page
// body contains text.
func TextPredicate(text string) string {
	quoted, _ := json.Marshal(text)
	return fmt.Sprintf("document.body !== null && document.body.innerText.includes(%s)", quoted)
}

// PollInterval is how often backends re-check a text predicate.
const PollInterval = 100 * time.Millisecond
