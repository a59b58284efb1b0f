//go:build windows

package win32

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")
	dwmapi   = windows.NewLazySystemDLL("dwmapi.dll")
	shcore   = windows.NewLazySystemDLL("shcore.dll")

	procRegisterClassExW           = user32.NewProc("RegisterClassExW")
	procUnregisterClassW           = user32.NewProc("UnregisterClassW")
	procCreateWindowExW            = user32.NewProc("CreateWindowExW")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
	procPostMessageW               = user32.NewProc("PostMessageW")
	procSendMessageW               = user32.NewProc("SendMessageW")
	procIsWindow                   = user32.NewProc("IsWindow")
	procIsWindowVisible            = user32.NewProc("IsWindowVisible")
	procShowWindow                 = user32.NewProc("ShowWindow")
	procGetWindowTextLengthW       = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW             = user32.NewProc("GetWindowTextW")
	procSetWindowTextW             = user32.NewProc("SetWindowTextW")
	procGetWindowLongW             = user32.NewProc("GetWindowLongW")
	procSetWindowLongW             = user32.NewProc("SetWindowLongW")
	procGetWindowRect              = user32.NewProc("GetWindowRect")
	procGetClientRect              = user32.NewProc("GetClientRect")
	procClientToScreen             = user32.NewProc("ClientToScreen")
	procSetWindowPos               = user32.NewProc("SetWindowPos")
	procGetWindow                  = user32.NewProc("GetWindow")
	procGetClassNameW              = user32.NewProc("GetClassNameW")
	procLoadCursorW                = user32.NewProc("LoadCursorW")
	procGetMessageW                = user32.NewProc("GetMessageW")
	procPeekMessageW               = user32.NewProc("PeekMessageW")
	procWaitMessage                = user32.NewProc("WaitMessage")
	procTranslateMessage           = user32.NewProc("TranslateMessage")
	procDispatchMessageW           = user32.NewProc("DispatchMessageW")
	procPostQuitMessage            = user32.NewProc("PostQuitMessage")
	procDefWindowProcW             = user32.NewProc("DefWindowProcW")
	procFindWindowW                = user32.NewProc("FindWindowW")
	procFindWindowExW              = user32.NewProc("FindWindowExW")
	procSetProcessDPIAware         = user32.NewProc("SetProcessDPIAware")

	procGetModuleHandleW = kernel32.NewProc("GetModuleHandleW")
	procSetLastError     = kernel32.NewProc("SetLastError")

	procDwmExtendFrameIntoClientArea = dwmapi.NewProc("DwmExtendFrameIntoClientArea")
	procDwmEnableBlurBehindWindow    = dwmapi.NewProc("DwmEnableBlurBehindWindow")

	procSetProcessDpiAwareness = shcore.NewProc("SetProcessDpiAwareness")
)

const (
	csVRedraw = 0x0001
	csHRedraw = 0x0002

	gwlStyle   int32 = -16
	gwlExStyle int32 = -20

	gwHwndPrev = 3

	swHide     = 0
	swShowNA   = 8
	idcArrow   = 32512
	lwaAlpha   = 0x2
	pmNoRemove = 0x0
	pmRemove   = 0x1

	swpNoSize          = 0x0001
	swpNoMove          = 0x0002
	swpNoZOrder        = 0x0004
	swpNoActivate      = 0x0010
	swpAsyncWindowPos  = 0x4000
	dwmBBEnable        = 0x1
	processPerMonitor  = 2
	eAccessDenied      = 0x80070005
	maxClassNameLength = 256
)

var (
	hwndTopmost   = ^uintptr(0) // (HWND)-1
	hwndNoTopmost = ^uintptr(1) // (HWND)-2
)

type point struct {
	X, Y int32
}

type rect struct {
	Left, Top, Right, Bottom int32
}

type msg struct {
	Hwnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       point
	LPrivate uint32
}

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   windows.Handle
	Icon       windows.Handle
	Cursor     windows.Handle
	Background windows.Handle
	MenuName   *uint16
	ClassName  *uint16
	IconSm     windows.Handle
}

type margins struct {
	LeftWidth, RightWidth, TopHeight, BottomHeight int32
}

type blurBehind struct {
	Flags                 uint32
	Enable                int32
	RgnBlur               windows.Handle
	TransitionOnMaximized int32
}

// lastError turns the error reported by a failed call into something
// printable. The loader reports ERROR_SUCCESS when the function failed
// without setting the last error.
func lastError(name string, err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		return fmt.Errorf("win32: %s: %w", name, errno)
	}
	return fmt.Errorf("win32: %s failed", name)
}

// clearLastError resets the thread's last error before calls whose zero
// return value is ambiguous.
func clearLastError() {
	procSetLastError.Call(0)
}

// hresult converts an HRESULT return value.
func hresult(name string, r uintptr) error {
	if int32(r) < 0 {
		return fmt.Errorf("win32: %s: HRESULT %#08x", name, uint32(r))
	}
	return nil
}
