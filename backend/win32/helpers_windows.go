//go:build windows

package win32

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/go-theft-auto/overlay"
)

// DisableScaling makes the process per-monitor DPI aware, so window
// rectangles of other processes are reported in physical pixels and the
// overlay is not stretched by the system. Call it before creating any
// window. It succeeds if the awareness was already set, for example by the
// application manifest.
func DisableScaling() error {
	if procSetProcessDpiAwareness.Find() == nil {
		r, _, _ := procSetProcessDpiAwareness.Call(processPerMonitor)
		if r == 0 || uint32(r) == eAccessDenied {
			return nil
		}
		return hresult("SetProcessDpiAwareness", r)
	}
	// Windows 7 has no shcore.dll.
	if r, _, err := procSetProcessDPIAware.Call(); r == 0 {
		return lastError("SetProcessDPIAware", err)
	}
	return nil
}

// optionalString returns nil for "", which the find functions treat as a
// wildcard.
func optionalString(s string) (*uint16, error) {
	if s == "" {
		return nil, nil
	}
	return windows.UTF16PtrFromString(s)
}

// FindWindow returns the top-level window matching class and title. An
// empty string matches any value. It returns InvalidHandle when no window
// matches.
func FindWindow(class, title string) (overlay.Handle, error) {
	return FindChildWindow(overlay.InvalidHandle, class, title)
}

// FindChildWindow returns the first child of parent matching class and
// title. An empty string matches any value; InvalidHandle as parent
// searches the top-level windows.
func FindChildWindow(parent overlay.Handle, class, title string) (overlay.Handle, error) {
	c, err := optionalString(class)
	if err != nil {
		return overlay.InvalidHandle, fmt.Errorf("win32: class: %w", err)
	}
	t, err := optionalString(title)
	if err != nil {
		return overlay.InvalidHandle, fmt.Errorf("win32: title: %w", err)
	}

	var h uintptr
	if parent.Valid() {
		h, _, _ = procFindWindowExW.Call(hwnd(parent), 0, uintptr(unsafe.Pointer(c)), uintptr(unsafe.Pointer(t)))
	} else {
		h, _, _ = procFindWindowW.Call(uintptr(unsafe.Pointer(c)), uintptr(unsafe.Pointer(t)))
	}
	return overlay.Handle(h), nil
}
