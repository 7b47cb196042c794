package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func fastConfig(attempts int) Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	return cfg
}

func TestDo_SucceedsAfterRetryableStatus(t *testing.T) {
	calls := 0
	attempts, err := Do(context.Background(), fastConfig(3), func(attempt int) error {
		calls++
		if attempt < 3 {
			return NewHTTPError(http.StatusGatewayTimeout, "slow")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Errorf("expected 3 attempts, got attempts=%d calls=%d", attempts, calls)
	}
}

func TestDo_StopsOnClientError(t *testing.T) {
	calls := 0
	attempts, err := Do(context.Background(), fastConfig(5), func(int) error {
		calls++
		return fmt.Errorf("scrape: %w", NewHTTPError(http.StatusBadRequest, "Invalid URL"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 || calls != 1 {
		t.Errorf("400 must not be retried, got %d calls", calls)
	}
	var httpErr HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected wrapped HTTPError, got %v", err)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	attempts, err := Do(context.Background(), fastConfig(2), func(int) error {
		return errors.New("connection reset")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestDo_Permanent(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(3), func(int) error {
		calls++
		return Permanent{Err: errors.New("bad input")}
	})
	if err == nil || calls != 1 {
		t.Errorf("permanent errors must not be retried, calls=%d err=%v", calls, err)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(10)
	cfg.InitialBackoff = time.Second

	calls := 0
	_, err := Do(ctx, cfg, func(int) error {
		calls++
		cancel()
		return NewHTTPError(http.StatusServiceUnavailable, "")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
}

func TestCalculateBackoff_Capped(t *testing.T) {
	cfg := Config{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second, Multiplier: 2}
	if got := calculateBackoff(0, cfg); got != time.Second {
		t.Errorf("attempt 0: got %v", got)
	}
	if got := calculateBackoff(2, cfg); got != 4*time.Second {
		t.Errorf("attempt 2: got %v", got)
	}
	if got := calculateBackoff(10, cfg); got != 5*time.Second {
		t.Errorf("attempt 10 should be capped: got %v", got)
	}
}
