// Package win32 implements overlay.Driver on the Windows API. Overlays are
// layered, click-through, topmost popup windows whose frame is extended
// into the client area by the desktop window manager, so per-pixel alpha
// shows the desktop underneath.
//
// Window moves and z-order changes are issued asynchronously, so a render
// loop may reposition an overlay while its owner thread is busy.
package win32

import "github.com/go-theft-auto/overlay"

// Window messages the overlay reacts to.
const (
	wmDestroy               = 0x0002
	wmPaint                 = 0x000F
	wmClose                 = 0x0010
	wmEraseBkgnd            = 0x0014
	wmNCDestroy             = 0x0082
	wmNCPaint               = 0x0085
	wmSysKeyDown            = 0x0104
	wmSysKeyUp              = 0x0105
	wmSysCommand            = 0x0112
	wmIMEKeyDown            = 0x0290
	wmIMEKeyUp              = 0x0291
	wmDPIChanged            = 0x02E0
	wmDWMCompositionChanged = 0x031E
)

// classify maps a native message id to the kind the window procedure
// switches on.
func classify(msg uint32) overlay.MessageKind {
	switch msg {
	case wmEraseBkgnd:
		return overlay.MsgEraseBackground
	case wmPaint:
		return overlay.MsgPaint
	case wmNCPaint:
		return overlay.MsgNCPaint
	case wmSysCommand:
		return overlay.MsgSysCommand
	case wmSysKeyDown:
		return overlay.MsgSysKeyDown
	case wmSysKeyUp:
		return overlay.MsgSysKeyUp
	case wmIMEKeyDown, wmIMEKeyUp:
		return overlay.MsgIMEKey
	case wmDPIChanged:
		return overlay.MsgDPIChanged
	case wmDWMCompositionChanged:
		return overlay.MsgCompositionChanged
	case wmDestroy:
		return overlay.MsgDestroy
	case wmNCDestroy:
		return overlay.MsgNCDestroy
	default:
		return overlay.MsgOther
	}
}
