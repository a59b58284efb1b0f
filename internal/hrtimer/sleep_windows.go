//go:build windows

package hrtimer

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	ntdll = windows.NewLazySystemDLL("ntdll.dll")
	winmm = windows.NewLazySystemDLL("winmm.dll")

	procNtDelayExecution = ntdll.NewProc("NtDelayExecution")
	procTimeBeginPeriod  = winmm.NewProc("timeBeginPeriod")
)

var (
	resolutionOnce sync.Once
	resolutionErr  error
)

func sleep(d time.Duration) {
	if procNtDelayExecution.Find() != nil {
		time.Sleep(d)
		return
	}
	// Relative intervals are negative, in 100ns units.
	interval := -int64(d / 100)
	procNtDelayExecution.Call(0, uintptr(unsafe.Pointer(&interval)))
}

func enableHighResolution() error {
	resolutionOnce.Do(func() {
		if err := procTimeBeginPeriod.Find(); err != nil {
			resolutionErr = fmt.Errorf("hrtimer: %w", err)
			return
		}
		if r, _, _ := procTimeBeginPeriod.Call(1); r != 0 {
			resolutionErr = fmt.Errorf("hrtimer: timeBeginPeriod failed with %d", r)
		}
	})
	return resolutionErr
}
