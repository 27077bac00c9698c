package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelsRouteToWriters(t *testing.T) {
	var out, errOut bytes.Buffer
	l := New(&out, &errOut)

	l.Info("hello")
	l.Warnf("storage %d/%d", 1000, 1000)
	l.Error("boom")
	l.Event("TAP_COLLECTED", "ana", "Iron Ore x1")

	if !strings.Contains(out.String(), "[URPG-INFO] ") || !strings.Contains(out.String(), "hello") {
		t.Errorf("Expected info line in stdout, got %q", out.String())
	}
	if !strings.Contains(out.String(), "storage 1000/1000") {
		t.Errorf("Expected formatted warning, got %q", out.String())
	}
	if !strings.Contains(out.String(), "[EVENT:TAP_COLLECTED] Actor:ana | Iron Ore x1") {
		t.Errorf("Expected event line, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "[URPG-ERROR] ") || strings.Contains(out.String(), "boom") {
		t.Errorf("Expected error only on the error writer, got out=%q err=%q", out.String(), errOut.String())
	}
}
