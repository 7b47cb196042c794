package ui

import "testing"

func TestPaint(t *testing.T) {
	old := Plain
	t.Cleanup(func() { Plain = old })

	Plain = false
	if got := Success("ok"); got != ColorGreen+"ok"+ColorReset {
		t.Errorf("Success styled = %q", got)
	}
	if got := Info("x"); got != ColorDim+ColorYellow+"x"+ColorReset {
		t.Errorf("Info styled = %q", got)
	}

	Plain = true
	for _, got := range []string{Bold("ok"), Success("ok"), Warn("ok"), Error("ok"), Info("ok")} {
		if got != "ok" {
			t.Errorf("expected plain text, got %q", got)
		}
	}
}
