//go:build !windows

package hrtimer

import "time"

func sleep(d time.Duration) {
	time.Sleep(d)
}

func enableHighResolution() error {
	return nil
}
