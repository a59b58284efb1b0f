//go:build windows

package win32

import (
	"fmt"
	"log/slog"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/go-theft-auto/overlay"
	"github.com/go-theft-auto/overlay/internal/osthread"
)

// Window procedures are looked up by class name, since a window receives
// messages from inside CreateWindowExW before its handle is known. The
// result is cached per window until WM_NCDESTROY.
type classEntry struct {
	proc overlay.WindowProc
	name []uint16
	menu []uint16
}

var (
	procsMu sync.RWMutex
	classes = make(map[string]*classEntry)
	byHWND  = make(map[uintptr]overlay.WindowProc)
)

// Callbacks are a limited resource, so every class shares one.
var wndProcCallback = sync.OnceValue(func() uintptr {
	return windows.NewCallback(wndProc)
})

func wndProc(hwnd, code, wparam, lparam uintptr) uintptr {
	proc := lookupProc(hwnd)
	if proc == nil {
		r, _, _ := procDefWindowProcW.Call(hwnd, code, wparam, lparam)
		return r
	}
	id := uint32(code)
	r := proc(overlay.Message{
		Window: overlay.Handle(hwnd),
		Kind:   classify(id),
		Code:   id,
		WParam: wparam,
		LParam: lparam,
	})
	if id == wmNCDestroy {
		procsMu.Lock()
		delete(byHWND, hwnd)
		procsMu.Unlock()
	}
	return r
}

func lookupProc(hwnd uintptr) overlay.WindowProc {
	procsMu.RLock()
	proc, ok := byHWND[hwnd]
	procsMu.RUnlock()
	if ok {
		return proc
	}

	name := className(hwnd)
	procsMu.Lock()
	defer procsMu.Unlock()
	c, ok := classes[name]
	if !ok {
		return nil
	}
	byHWND[hwnd] = c.proc
	return c.proc
}

func className(hwnd uintptr) string {
	var buf [maxClassNameLength]uint16
	n, _, _ := procGetClassNameW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf[:n])
}

// Driver implements overlay.Driver on user32 and dwmapi.
type Driver struct {
	instance uintptr
	log      *slog.Logger
}

var _ overlay.Driver = (*Driver)(nil)

// New returns a driver for the current process.
func New() (*Driver, error) {
	instance, _, err := procGetModuleHandleW.Call(0)
	if instance == 0 {
		return nil, lastError("GetModuleHandleW", err)
	}
	return &Driver{instance: instance, log: overlay.Logger()}, nil
}

func hwnd(h overlay.Handle) uintptr { return uintptr(h) }

// RegisterClass implements overlay.Driver.
func (d *Driver) RegisterClass(c overlay.WindowClass) error {
	name, err := windows.UTF16FromString(c.Name)
	if err != nil {
		return fmt.Errorf("win32: class name: %w", err)
	}
	menu, err := windows.UTF16FromString(c.Menu)
	if err != nil {
		return fmt.Errorf("win32: menu name: %w", err)
	}
	entry := &classEntry{proc: c.Proc, name: name, menu: menu}

	procsMu.Lock()
	if _, dup := classes[c.Name]; dup {
		procsMu.Unlock()
		return fmt.Errorf("win32: class %q already registered", c.Name)
	}
	classes[c.Name] = entry
	procsMu.Unlock()

	cursor, _, _ := procLoadCursorW.Call(0, idcArrow)
	wc := wndClassEx{
		Style:     csHRedraw | csVRedraw,
		WndProc:   wndProcCallback(),
		Instance:  windows.Handle(d.instance),
		Cursor:    windows.Handle(cursor),
		MenuName:  &entry.menu[0],
		ClassName: &entry.name[0],
	}
	wc.Size = uint32(unsafe.Sizeof(wc))

	if atom, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); atom == 0 {
		procsMu.Lock()
		delete(classes, c.Name)
		procsMu.Unlock()
		return lastError("RegisterClassExW", err)
	}
	return nil
}

// UnregisterClass implements overlay.Driver.
func (d *Driver) UnregisterClass(name string) error {
	procsMu.Lock()
	entry, ok := classes[name]
	procsMu.Unlock()
	if !ok {
		return fmt.Errorf("win32: class %q not registered", name)
	}
	if r, _, err := procUnregisterClassW.Call(uintptr(unsafe.Pointer(&entry.name[0])), d.instance); r == 0 {
		return lastError("UnregisterClassW", err)
	}
	procsMu.Lock()
	delete(classes, name)
	procsMu.Unlock()
	return nil
}

// CreateWindow implements overlay.Driver.
func (d *Driver) CreateWindow(spec overlay.WindowSpec) (overlay.Handle, error) {
	procsMu.RLock()
	entry, ok := classes[spec.Class]
	procsMu.RUnlock()
	if !ok {
		return overlay.InvalidHandle, fmt.Errorf("win32: class %q not registered", spec.Class)
	}
	title, err := windows.UTF16PtrFromString(spec.Title)
	if err != nil {
		return overlay.InvalidHandle, fmt.Errorf("win32: title: %w", err)
	}

	b := spec.Bounds
	h, _, err := procCreateWindowExW.Call(
		uintptr(spec.ExStyle),
		uintptr(unsafe.Pointer(&entry.name[0])),
		uintptr(unsafe.Pointer(title)),
		uintptr(spec.Style),
		uintptr(b.Left), uintptr(b.Top), uintptr(b.Dx()), uintptr(b.Dy()),
		0, 0, d.instance, 0,
	)
	if h == 0 {
		return overlay.InvalidHandle, lastError("CreateWindowExW", err)
	}

	if spec.ExStyle&overlay.ExLayered != 0 {
		if r, _, err := procSetLayeredWindowAttributes.Call(h, 0, 255, lwaAlpha); r == 0 {
			d.log.Warn("win32: layered window attributes", "hwnd", overlay.Handle(h), "err", lastError("SetLayeredWindowAttributes", err))
		}
	}
	return overlay.Handle(h), nil
}

// RequestDestroy posts WM_CLOSE, which the default procedure turns into
// DestroyWindow on the owner thread.
func (d *Driver) RequestDestroy(h overlay.Handle) error {
	if r, _, err := procPostMessageW.Call(hwnd(h), wmClose, 0, 0); r == 0 {
		return lastError("PostMessageW", err)
	}
	return nil
}

// IsWindow implements overlay.Driver.
func (d *Driver) IsWindow(h overlay.Handle) bool {
	if !h.Valid() {
		return false
	}
	r, _, _ := procIsWindow.Call(hwnd(h))
	return r != 0
}

// IsVisible implements overlay.Driver.
func (d *Driver) IsVisible(h overlay.Handle) bool {
	r, _, _ := procIsWindowVisible.Call(hwnd(h))
	return r != 0
}

// Show implements overlay.Driver. Showing never activates the window.
func (d *Driver) Show(h overlay.Handle, visible bool) error {
	cmd := uintptr(swHide)
	if visible {
		cmd = swShowNA
	}
	// The return value is the previous visibility, not an error.
	procShowWindow.Call(hwnd(h), cmd)
	return nil
}

// Title implements overlay.Driver.
func (d *Driver) Title(h overlay.Handle) (string, error) {
	n, _, _ := procGetWindowTextLengthW.Call(hwnd(h))
	buf := make([]uint16, n+1)
	r, _, err := procGetWindowTextW.Call(hwnd(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if r == 0 && n != 0 {
		return "", lastError("GetWindowTextW", err)
	}
	return windows.UTF16ToString(buf[:r]), nil
}

// SetTitle implements overlay.Driver.
func (d *Driver) SetTitle(h overlay.Handle, title string) error {
	p, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return fmt.Errorf("win32: title: %w", err)
	}
	if r, _, err := procSetWindowTextW.Call(hwnd(h), uintptr(unsafe.Pointer(p))); r == 0 {
		return lastError("SetWindowTextW", err)
	}
	return nil
}

func getLong(h overlay.Handle, index int32) (uint32, error) {
	clearLastError()
	r, _, err := procGetWindowLongW.Call(hwnd(h), uintptr(index))
	if r == 0 {
		if errno, ok := err.(syscall.Errno); ok && errno != 0 {
			return 0, lastError("GetWindowLongW", err)
		}
	}
	return uint32(r), nil
}

func setLong(h overlay.Handle, index int32, value uint32) error {
	clearLastError()
	r, _, err := procSetWindowLongW.Call(hwnd(h), uintptr(index), uintptr(value))
	if r == 0 {
		if errno, ok := err.(syscall.Errno); ok && errno != 0 {
			return lastError("SetWindowLongW", err)
		}
	}
	return nil
}

// Style implements overlay.Driver.
func (d *Driver) Style(h overlay.Handle) (overlay.Style, error) {
	s, err := getLong(h, gwlStyle)
	return overlay.Style(s), err
}

// SetStyle implements overlay.Driver.
func (d *Driver) SetStyle(h overlay.Handle, s overlay.Style) error {
	return setLong(h, gwlStyle, uint32(s))
}

// ExStyle implements overlay.Driver.
func (d *Driver) ExStyle(h overlay.Handle) (overlay.ExStyle, error) {
	s, err := getLong(h, gwlExStyle)
	return overlay.ExStyle(s), err
}

// SetExStyle implements overlay.Driver.
func (d *Driver) SetExStyle(h overlay.Handle, s overlay.ExStyle) error {
	return setLong(h, gwlExStyle, uint32(s))
}

func (r rect) toRect() overlay.Rect {
	return overlay.Rect{Left: int(r.Left), Top: int(r.Top), Right: int(r.Right), Bottom: int(r.Bottom)}
}

// WindowRect implements overlay.Geometry.
func (d *Driver) WindowRect(h overlay.Handle) (overlay.Rect, error) {
	var r rect
	if ok, _, err := procGetWindowRect.Call(hwnd(h), uintptr(unsafe.Pointer(&r))); ok == 0 {
		return overlay.Rect{}, lastError("GetWindowRect", err)
	}
	return r.toRect(), nil
}

// ClientRect implements overlay.Geometry.
func (d *Driver) ClientRect(h overlay.Handle) (overlay.Rect, error) {
	var r rect
	if ok, _, err := procGetClientRect.Call(hwnd(h), uintptr(unsafe.Pointer(&r))); ok == 0 {
		return overlay.Rect{}, lastError("GetClientRect", err)
	}
	return r.toRect(), nil
}

// ClientToScreen implements overlay.Geometry.
func (d *Driver) ClientToScreen(h overlay.Handle, p overlay.Point) (overlay.Point, error) {
	pt := point{X: int32(p.X), Y: int32(p.Y)}
	if ok, _, err := procClientToScreen.Call(hwnd(h), uintptr(unsafe.Pointer(&pt))); ok == 0 {
		return overlay.Point{}, lastError("ClientToScreen", err)
	}
	return overlay.Point{X: int(pt.X), Y: int(pt.Y)}, nil
}

// MoveWindow implements overlay.Geometry. The move is posted to the owner
// thread, so it does not block when called from a render loop.
func (d *Driver) MoveWindow(h overlay.Handle, r overlay.Rect) error {
	return setWindowPos(h, 0, r, swpNoZOrder|swpNoActivate|swpAsyncWindowPos)
}

func setWindowPos(h overlay.Handle, after uintptr, r overlay.Rect, flags uintptr) error {
	ok, _, err := procSetWindowPos.Call(hwnd(h), after,
		uintptr(r.Left), uintptr(r.Top), uintptr(r.Dx()), uintptr(r.Dy()), flags)
	if ok == 0 {
		return lastError("SetWindowPos", err)
	}
	return nil
}

const zOrderFlags = swpNoMove | swpNoSize | swpNoActivate | swpAsyncWindowPos

// SetTopmost implements overlay.ZOrder.
func (d *Driver) SetTopmost(h overlay.Handle, topmost bool) error {
	after := hwndNoTopmost
	if topmost {
		after = hwndTopmost
	}
	return setWindowPos(h, after, overlay.Rect{}, zOrderFlags)
}

// PrevWindow implements overlay.ZOrder.
func (d *Driver) PrevWindow(h overlay.Handle) (overlay.Handle, error) {
	clearLastError()
	prev, _, err := procGetWindow.Call(hwnd(h), gwHwndPrev)
	if prev == 0 {
		if errno, ok := err.(syscall.Errno); ok && errno != 0 {
			return overlay.InvalidHandle, lastError("GetWindow", err)
		}
	}
	return overlay.Handle(prev), nil
}

// InsertAfter implements overlay.ZOrder. InvalidHandle maps to HWND_TOP.
func (d *Driver) InsertAfter(h, after overlay.Handle) error {
	return setWindowPos(h, hwnd(after), overlay.Rect{}, zOrderFlags)
}

// ExtendFrameIntoClientArea implements overlay.Compositor with "sheet of
// glass" margins.
func (d *Driver) ExtendFrameIntoClientArea(h overlay.Handle) error {
	if err := procDwmExtendFrameIntoClientArea.Find(); err != nil {
		return fmt.Errorf("win32: %w", err)
	}
	m := margins{-1, -1, -1, -1}
	r, _, _ := procDwmExtendFrameIntoClientArea.Call(hwnd(h), uintptr(unsafe.Pointer(&m)))
	return hresult("DwmExtendFrameIntoClientArea", r)
}

// EnableBlurBehind implements overlay.Compositor.
func (d *Driver) EnableBlurBehind(h overlay.Handle) error {
	if err := procDwmEnableBlurBehindWindow.Find(); err != nil {
		return fmt.Errorf("win32: %w", err)
	}
	bb := blurBehind{Flags: dwmBBEnable, Enable: 1}
	r, _, _ := procDwmEnableBlurBehindWindow.Call(hwnd(h), uintptr(unsafe.Pointer(&bb)))
	return hresult("DwmEnableBlurBehindWindow", r)
}

// CurrentThread implements overlay.MessagePump.
func (d *Driver) CurrentThread() uint64 {
	return osthread.ID()
}

// GetMessage implements overlay.MessagePump.
func (d *Driver) GetMessage() (overlay.Message, bool, error) {
	var m msg
	r, _, err := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
	switch int32(r) {
	case -1:
		return overlay.Message{}, false, lastError("GetMessageW", err)
	case 0:
		return m.toMessage(), false, nil
	}
	return m.toMessage(), true, nil
}

func (m *msg) toMessage() overlay.Message {
	return overlay.Message{
		Window: overlay.Handle(m.Hwnd),
		Kind:   classify(m.Message),
		Code:   m.Message,
		WParam: m.WParam,
		LParam: m.LParam,
		Time:   m.Time,
		Pt:     overlay.Point{X: int(m.Pt.X), Y: int(m.Pt.Y)},
	}
}

func fromMessage(m overlay.Message) msg {
	return msg{
		Hwnd:    hwnd(m.Window),
		Message: m.Code,
		WParam:  m.WParam,
		LParam:  m.LParam,
		Time:    m.Time,
		Pt:      point{X: int32(m.Pt.X), Y: int32(m.Pt.Y)},
	}
}

// DispatchMessage implements overlay.MessagePump.
func (d *Driver) DispatchMessage(m overlay.Message) {
	nm := fromMessage(m)
	procTranslateMessage.Call(uintptr(unsafe.Pointer(&nm)))
	procDispatchMessageW.Call(uintptr(unsafe.Pointer(&nm)))
}

// WaitMessage implements overlay.MessagePump. It returns at once while
// messages are queued, because WaitMessage alone only wakes up for input
// that arrived after the last GetMessage.
func (d *Driver) WaitMessage() error {
	var m msg
	if r, _, _ := procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmNoRemove); r != 0 {
		return nil
	}
	if r, _, err := procWaitMessage.Call(); r == 0 {
		return lastError("WaitMessage", err)
	}
	return nil
}

// PostQuit implements overlay.MessagePump.
func (d *Driver) PostQuit(code int) {
	procPostQuitMessage.Call(uintptr(code))
}

// SendPaint implements overlay.MessagePump.
func (d *Driver) SendPaint(h overlay.Handle) {
	procSendMessageW.Call(hwnd(h), wmPaint, 0, 0)
}

// DefaultProc implements overlay.MessagePump.
func (d *Driver) DefaultProc(m overlay.Message) uintptr {
	r, _, _ := procDefWindowProcW.Call(hwnd(m.Window), uintptr(m.Code), m.WParam, m.LParam)
	return r
}
