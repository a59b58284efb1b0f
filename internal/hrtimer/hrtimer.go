// Package hrtimer provides the delay primitive used to pace render loops.
//
// On Windows the default scheduler tick is ~15.6ms, which makes time.Sleep
// useless for frame pacing; there the package sleeps with NtDelayExecution
// and can raise the system timer resolution. Elsewhere time.Sleep is already
// precise enough.
package hrtimer

import "time"

// Sleep suspends the calling goroutine for at least d.
func Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	sleep(d)
}

// EnableHighResolution raises the system timer resolution to 1ms for the
// lifetime of the process. It is a no-op where the platform does not need it.
func EnableHighResolution() error {
	return enableHighResolution()
}
