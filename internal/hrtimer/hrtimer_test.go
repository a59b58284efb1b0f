package hrtimer

import (
	"testing"
	"time"
)

func TestSleepWaitsAtLeastDuration(t *testing.T) {
	const d = 5 * time.Millisecond
	start := time.Now()
	Sleep(d)
	if elapsed := time.Since(start); elapsed < d {
		t.Errorf("Sleep(%v) returned after %v", d, elapsed)
	}
}

func TestSleepNonPositiveReturnsImmediately(t *testing.T) {
	start := time.Now()
	Sleep(0)
	Sleep(-time.Second)
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("non-positive sleep took %v", elapsed)
	}
}

func TestEnableHighResolution(t *testing.T) {
	if err := EnableHighResolution(); err != nil {
		t.Fatalf("EnableHighResolution: %v", err)
	}
	// Second call must be harmless.
	if err := EnableHighResolution(); err != nil {
		t.Fatalf("second EnableHighResolution: %v", err)
	}
}
