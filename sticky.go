package overlay

import (
	"errors"
	"sync/atomic"
	"time"
)

// StickInterval is the minimum time between two position updates of an
// Attachment, independent of the render rate.
const StickInterval = 34 * time.Millisecond

// Attachment keeps a window glued to a target window. It runs as a
// PreDrawHook: on a tick at most every StickInterval it optionally raises
// the window above the target and then moves it over the target's outer
// rectangle or client area.
//
// The setters are safe to call from any goroutine.
type Attachment struct {
	win           *Window
	target        atomic.Uintptr
	clientArea    atomic.Bool
	bypassTopmost atomic.Bool

	// Only touched from BeforeDraw, which runs under the draw lock.
	stuck     bool
	lastStick time.Duration
}

// NewAttachment creates an attachment moving w over target. Register it
// with w.AddPreDrawHook, or use NewStickyWindow.
func NewAttachment(w *Window, target Handle) *Attachment {
	a := &Attachment{win: w}
	a.target.Store(uintptr(target))
	return a
}

// BeforeDraw implements PreDrawHook.
func (a *Attachment) BeforeDraw(f Frame) {
	if a.stuck && f.Time-a.lastStick <= StickInterval {
		return
	}
	a.stuck = true
	a.lastStick = f.Time

	target := a.Target()
	if !target.Valid() {
		return
	}
	if a.bypassTopmost.Load() {
		if err := a.win.PlaceAbove(target); err != nil {
			a.win.log.Debug("overlay: place above target", "target", target, "err", err)
		}
	}
	if err := a.win.FitTo(target, a.clientArea.Load()); err != nil {
		a.win.log.Debug("overlay: fit to target", "target", target, "err", err)
	}
}

// Target returns the window being followed.
func (a *Attachment) Target() Handle {
	return Handle(a.target.Load())
}

// SetTarget switches to following h.
func (a *Attachment) SetTarget(h Handle) {
	a.target.Store(uintptr(h))
}

// AttachToClientArea reports whether only the target's client area is
// covered.
func (a *Attachment) AttachToClientArea() bool {
	return a.clientArea.Load()
}

// SetAttachToClientArea selects between covering the target's client area
// (true) and its whole outer rectangle (false).
func (a *Attachment) SetAttachToClientArea(v bool) {
	a.clientArea.Store(v)
}

// BypassTopmost reports whether the window is kept directly above the
// target instead of relying on the topmost band.
func (a *Attachment) BypassTopmost() bool {
	return a.bypassTopmost.Load()
}

// SetBypassTopmost enables placing the window directly above the target in
// the z-order on every update.
func (a *Attachment) SetBypassTopmost(v bool) {
	a.bypassTopmost.Store(v)
}

// StickyWindow is an overlay window attached to a target window.
type StickyWindow struct {
	*Window
	*Attachment
}

// NewStickyWindow creates an overlay window that follows target. The
// window starts over the target's outer rectangle unless WithBounds is
// given. It returns ErrNotAWindow if target is not an existing window.
func NewStickyWindow(d Driver, target Handle, s Surface, r Renderer, opts ...Option) (*StickyWindow, error) {
	if !target.Valid() || !d.IsWindow(target) {
		return nil, ErrNotAWindow
	}
	if tr, err := d.WindowRect(target); err == nil {
		opts = append([]Option{WithBounds(tr)}, opts...)
	}

	cfg := newConfig(opts)
	w, err := newWindow(d, s, r, cfg)
	if err != nil {
		return nil, err
	}
	a := NewAttachment(w, target)
	w.AddPreDrawHook(a)

	if cfg.fps != 0 {
		if err := w.SetFPS(cfg.fps); err != nil {
			return nil, errors.Join(err, w.Close())
		}
	}
	return &StickyWindow{Window: w, Attachment: a}, nil
}
