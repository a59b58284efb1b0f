package overlay

import (
	"time"

	"github.com/go-theft-auto/overlay/internal/hrtimer"
)

// Clock is the monotonic time source for frame timing and throttling.
// Now returns the time elapsed since the clock started.
type Clock interface {
	Now() time.Duration
}

type monotonicClock struct {
	start time.Time
}

// MonotonicClock returns a Clock that starts at zero now.
func MonotonicClock() Clock {
	return monotonicClock{start: time.Now()}
}

func (c monotonicClock) Now() time.Duration {
	return time.Since(c.start)
}

// EnableHighResolutionTimer raises the system timer resolution to 1 ms for
// the rest of the process. Without it, frame pacing on Windows is limited
// by the ~15.6 ms scheduler tick. Call it once at startup; it does nothing
// on systems that do not need it.
func EnableHighResolutionTimer() error {
	return hrtimer.EnableHighResolution()
}
