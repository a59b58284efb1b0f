package overlay

import (
	"fmt"
	"time"
)

// Handle identifies a native window. It is owned by the Window that created
// it; InvalidHandle means "no window", both before creation and after
// destruction.
type Handle uintptr

// InvalidHandle is the sentinel for a missing or destroyed window.
const InvalidHandle Handle = 0

// Valid reports whether h refers to a window at all. It does not ask the
// platform whether the window still exists; use Driver.IsWindow for that.
func (h Handle) Valid() bool {
	return h != InvalidHandle
}

// String formats the handle the way platform tools print them.
func (h Handle) String() string {
	return fmt.Sprintf("0x%X", uintptr(h))
}

// Point is a position in screen or client coordinates.
type Point struct {
	X, Y int
}

// Rect is an edge-based rectangle matching the native RECT layout:
// Right and Bottom are exclusive.
type Rect struct {
	Left, Top, Right, Bottom int
}

// RectFromSize creates a rectangle from its origin and size.
func RectFromSize(x, y, width, height int) Rect {
	return Rect{Left: x, Top: y, Right: x + width, Bottom: y + height}
}

// Dx returns the width of the rectangle.
func (r Rect) Dx() int { return r.Right - r.Left }

// Dy returns the height of the rectangle.
func (r Rect) Dy() int { return r.Bottom - r.Top }

// Size returns width and height as a convenience.
func (r Rect) Size() (width, height int) { return r.Dx(), r.Dy() }

// Origin returns the top-left corner.
func (r Rect) Origin() Point { return Point{X: r.Left, Y: r.Top} }

// Add translates the rectangle by p.
func (r Rect) Add(p Point) Rect {
	return Rect{Left: r.Left + p.X, Top: r.Top + p.Y, Right: r.Right + p.X, Bottom: r.Bottom + p.Y}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Dx() <= 0 || r.Dy() <= 0
}

// Frame describes one render tick.
type Frame struct {
	Count int           // Number of the frame, starting at 1
	Time  time.Duration // Clock time at the start of the draw
	Delta time.Duration // Time elapsed since the previous draw
}

// Style holds the normal window style bits. Values match the Win32 WS_*
// constants; other drivers map them onto their own window hints.
type Style uint32

// Window styles used by overlays.
const (
	StylePopup   Style = 0x80000000
	StyleVisible Style = 0x10000000
)

// ExStyle holds the extended window style bits (Win32 WS_EX_*).
type ExStyle uint32

// Extended window styles used by overlays.
const (
	ExTopmost     ExStyle = 0x00000008
	ExTransparent ExStyle = 0x00000020 // Mouse input passes through
	ExToolWindow  ExStyle = 0x00000080
	ExLayered     ExStyle = 0x00080000
	ExNoActivate  ExStyle = 0x08000000
)

// Overlay style sets applied by NewWindow.
const (
	OverlayStyle   = StylePopup | StyleVisible
	OverlayExStyle = ExTransparent | ExTopmost | ExLayered | ExNoActivate
)

// MessageKind classifies native window messages. Drivers translate their
// platform message ids into kinds before dispatching.
type MessageKind int

// Message kinds the window procedure reacts to.
const (
	MsgOther MessageKind = iota
	MsgEraseBackground
	MsgPaint
	MsgNCPaint
	MsgSysCommand
	MsgSysKeyDown
	MsgSysKeyUp
	MsgIMEKey
	MsgDPIChanged
	MsgCompositionChanged
	MsgDestroy
	MsgNCDestroy
)

var messageKindNames = [...]string{
	MsgOther:              "other",
	MsgEraseBackground:    "erase-background",
	MsgPaint:              "paint",
	MsgNCPaint:            "nc-paint",
	MsgSysCommand:         "sys-command",
	MsgSysKeyDown:         "sys-key-down",
	MsgSysKeyUp:           "sys-key-up",
	MsgIMEKey:             "ime-key",
	MsgDPIChanged:         "dpi-changed",
	MsgCompositionChanged: "composition-changed",
	MsgDestroy:            "destroy",
	MsgNCDestroy:          "nc-destroy",
}

func (k MessageKind) String() string {
	if k >= 0 && int(k) < len(messageKindNames) {
		return messageKindNames[k]
	}
	return fmt.Sprintf("MessageKind(%d)", int(k))
}

// Message is a window message as seen by the window procedure. Code, WParam,
// LParam, Time and Pt carry the native payload so a driver can rebuild the
// platform structure for translation and dispatch.
type Message struct {
	Window Handle
	Kind   MessageKind
	Code   uint32
	WParam uintptr
	LParam uintptr
	Time   uint32
	Pt     Point
}

// WindowProc handles messages for every window of a class. The returned
// value is passed back to the platform.
type WindowProc func(m Message) uintptr
