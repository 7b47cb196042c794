package engine

import (
	"context"
	"strings"
	"time"

	"github.com/law-makers/parscrape/pkg/models"
)

// WaitType selects what a backend waits for after navigation.
type WaitType string

const (
	WaitSleep    WaitType = models.WaitSleep
	WaitIdle     WaitType = models.WaitIdle
	WaitNone     WaitType = models.WaitNone
	WaitSelector WaitType = models.WaitSelector
	WaitText     WaitType = models.WaitText
)

// ParseWaitType maps a request value to a WaitType. Unknown or empty values
// fall back to WaitSleep.
func ParseWaitType(s string) WaitType {
	switch w := WaitType(strings.ToLower(strings.TrimSpace(s))); w {
	case WaitSleep, WaitIdle, WaitNone, WaitSelector, WaitText:
		return w
	}
	return WaitSleep
}

// RequiresSelector reports whether the strategy needs a wait_selector value.
func (w WaitType) RequiresSelector() bool {
	return w == WaitSelector || w == WaitText
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
