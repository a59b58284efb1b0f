package overlay_test

import (
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/go-theft-auto/overlay"
)

func quiet() overlay.Option {
	return overlay.WithLogger(slog.New(slog.DiscardHandler))
}

// waitFor polls cond until it holds or timeout passes.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}

func requireThreadIDs(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" && runtime.GOOS != "windows" {
		t.Skip("self-join detection needs OS thread ids")
	}
}
