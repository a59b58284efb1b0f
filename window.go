package overlay

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Window is a borderless, click-through, always-on-top native window with
// a Canvas drawing into it.
//
// The window belongs to the OS thread that called NewWindow. MessageLoop
// must run on that thread; everything else may be called from any
// goroutine.
type Window struct {
	*Canvas

	driver    Driver
	handle    atomic.Uintptr
	className string
	owner     uint64
	onMessage func(Message)
	log       *slog.Logger

	// proc is handed to the platform when the class is registered and is
	// never reassigned, so it stays reachable for the life of the window.
	proc WindowProc

	closeOnce sync.Once
	closeErr  error
}

// NewWindow creates an overlay window on the calling OS thread. Callers
// normally lock the goroutine to its thread first (runtime.LockOSThread)
// and run MessageLoop on it afterwards.
//
// Failing to register the window class or to create the window is
// returned as an error; nothing is left registered in that case.
func NewWindow(d Driver, s Surface, r Renderer, opts ...Option) (*Window, error) {
	cfg := newConfig(opts)
	w, err := newWindow(d, s, r, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.fps != 0 {
		if err := w.SetFPS(cfg.fps); err != nil {
			return nil, errors.Join(err, w.Close())
		}
	}
	return w, nil
}

func newWindow(d Driver, s Surface, r Renderer, cfg config) (*Window, error) {
	w := &Window{
		driver:    d,
		className: cfg.className,
		onMessage: cfg.onMessage,
		log:       cfg.logger,
	}
	w.proc = w.windowProc

	if w.className == "" {
		w.className = RandomClassName()
	}
	title := cfg.title
	if !cfg.hasTitle {
		title = RandomTitle()
	}

	if err := d.RegisterClass(WindowClass{Name: w.className, Menu: RandomTitle(), Proc: w.proc}); err != nil {
		return nil, fmt.Errorf("overlay: register class %q: %w", w.className, err)
	}
	h, err := d.CreateWindow(WindowSpec{
		Class:   w.className,
		Title:   title,
		Bounds:  cfg.bounds,
		Style:   OverlayStyle,
		ExStyle: OverlayExStyle,
	})
	if err != nil {
		if uerr := d.UnregisterClass(w.className); uerr != nil {
			err = errors.Join(err, uerr)
		}
		return nil, fmt.Errorf("overlay: create window: %w", err)
	}
	w.handle.Store(uintptr(h))
	w.owner = d.CurrentThread()

	if err := d.Show(h, true); err != nil {
		w.log.Warn("overlay: show window", "handle", h, "err", err)
	}
	if err := d.ExtendFrameIntoClientArea(h); err != nil {
		w.log.Warn("overlay: extend frame", "handle", h, "err", err)
	}
	if cfg.blurBehind {
		if err := d.EnableBlurBehind(h); err != nil {
			w.log.Warn("overlay: blur behind", "handle", h, "err", err)
		}
	}

	w.Canvas = newCanvas(d, h, s, r, cfg)
	w.log.Debug("overlay: window created", "handle", h, "class", w.className, "bounds", cfg.bounds)
	return w, nil
}

// windowProc is the message procedure of the overlay class.
func (w *Window) windowProc(m Message) uintptr {
	if w.onMessage != nil {
		w.onMessage(m)
	}

	switch m.Kind {
	case MsgEraseBackground:
		w.driver.SendPaint(m.Window)
	case MsgPaint, MsgNCPaint, MsgSysCommand, MsgSysKeyDown, MsgSysKeyUp, MsgIMEKey, MsgDPIChanged:
		return 0
	case MsgCompositionChanged:
		if err := w.driver.ExtendFrameIntoClientArea(m.Window); err != nil {
			w.log.Debug("overlay: extend frame", "handle", m.Window, "err", err)
		}
		return 0
	case MsgDestroy, MsgNCDestroy:
		w.driver.PostQuit(0)
	}
	return w.driver.DefaultProc(m)
}

// Handle returns the native window, or InvalidHandle once the window was
// closed.
func (w *Window) Handle() Handle {
	return Handle(w.handle.Load())
}

// ClassName returns the registered class of the window.
func (w *Window) ClassName() string {
	return w.className
}

// live returns the handle if it still names an existing window.
func (w *Window) live() (Handle, error) {
	h := w.Handle()
	if !h.Valid() || !w.driver.IsWindow(h) {
		return InvalidHandle, ErrInvalidHandle
	}
	return h, nil
}

// MessageLoop pumps window messages until the window is destroyed, then
// closes it. It must be called on the thread that created the window and
// returns ErrWrongThread without pumping otherwise.
func (w *Window) MessageLoop() error {
	if _, err := w.live(); err != nil {
		return err
	}
	if w.driver.CurrentThread() != w.owner {
		return ErrWrongThread
	}

	var loopErr error
	for {
		m, ok, err := w.driver.GetMessage()
		if err != nil {
			loopErr = fmt.Errorf("overlay: get message: %w", err)
			break
		}
		if !ok {
			break
		}
		w.driver.DispatchMessage(m)
		if err := w.driver.WaitMessage(); err != nil {
			loopErr = fmt.Errorf("overlay: wait message: %w", err)
			break
		}
	}

	err := errors.Join(loopErr, w.Close())
	if uerr := w.driver.UnregisterClass(w.className); uerr != nil {
		w.log.Debug("overlay: unregister class", "class", w.className, "err", uerr)
	}
	return err
}

// Close stops rendering, releases the surface and requests destruction of
// the native window. It may be called from any goroutine except the render
// goroutine, where it returns ErrSelfJoin. Only the first call does any
// work; later calls return its result.
func (w *Window) Close() error {
	if w.Canvas.loop.OnLoopThread() {
		return ErrSelfJoin
	}
	w.closeOnce.Do(func() {
		w.closeErr = w.dispose()
	})
	return w.closeErr
}

func (w *Window) dispose() error {
	err := w.Canvas.Close()

	h := Handle(w.handle.Swap(uintptr(InvalidHandle)))
	if h.Valid() && w.driver.IsWindow(h) {
		if derr := w.driver.RequestDestroy(h); derr != nil {
			err = errors.Join(err, fmt.Errorf("overlay: destroy window: %w", derr))
		}
	}
	w.log.Debug("overlay: window closed", "handle", h)
	return err
}

// Visible reports whether the window is shown.
func (w *Window) Visible() bool {
	h, err := w.live()
	if err != nil {
		return false
	}
	return w.driver.IsVisible(h)
}

// SetVisible shows or hides the window.
func (w *Window) SetVisible(visible bool) error {
	h, err := w.live()
	if err != nil {
		return err
	}
	return w.driver.Show(h, visible)
}

// Topmost reports whether the window is in the topmost z-order band.
func (w *Window) Topmost() (bool, error) {
	s, err := w.ExStyle()
	if err != nil {
		return false, err
	}
	return s&ExTopmost != 0, nil
}

// SetTopmost moves the window into or out of the topmost band.
func (w *Window) SetTopmost(topmost bool) error {
	h, err := w.live()
	if err != nil {
		return err
	}
	return w.driver.SetTopmost(h, topmost)
}

// Title returns the window title.
func (w *Window) Title() (string, error) {
	h, err := w.live()
	if err != nil {
		return "", err
	}
	return w.driver.Title(h)
}

// SetTitle changes the window title.
func (w *Window) SetTitle(title string) error {
	h, err := w.live()
	if err != nil {
		return err
	}
	return w.driver.SetTitle(h, title)
}

// Bounds returns the window rectangle in screen coordinates.
func (w *Window) Bounds() (Rect, error) {
	h, err := w.live()
	if err != nil {
		return Rect{}, err
	}
	return w.driver.WindowRect(h)
}

// SetBounds moves and resizes the window. Moving can reset the compositor
// state, so the frame is extended into the client area again.
func (w *Window) SetBounds(r Rect) error {
	h, err := w.live()
	if err != nil {
		return err
	}
	if err := w.driver.MoveWindow(h, r); err != nil {
		return err
	}
	return w.driver.ExtendFrameIntoClientArea(h)
}

// Style returns the normal window style bits.
func (w *Window) Style() (Style, error) {
	h, err := w.live()
	if err != nil {
		return 0, err
	}
	return w.driver.Style(h)
}

// SetStyle replaces the normal window style bits.
func (w *Window) SetStyle(s Style) error {
	h, err := w.live()
	if err != nil {
		return err
	}
	return w.driver.SetStyle(h, s)
}

// ExStyle returns the extended window style bits.
func (w *Window) ExStyle() (ExStyle, error) {
	h, err := w.live()
	if err != nil {
		return 0, err
	}
	return w.driver.ExStyle(h)
}

// SetExStyle replaces the extended window style bits.
func (w *Window) SetExStyle(s ExStyle) error {
	h, err := w.live()
	if err != nil {
		return err
	}
	return w.driver.SetExStyle(h, s)
}

// FitTo moves the window over target, either over its whole outer
// rectangle or over its client area only. Nothing happens when the window
// is already in place.
func (w *Window) FitTo(target Handle, clientArea bool) error {
	want, err := TargetBounds(w.driver, target, clientArea)
	if err != nil {
		return err
	}
	have, err := w.Bounds()
	if err != nil {
		return err
	}
	if have == want {
		return nil
	}
	return w.SetBounds(want)
}

// PlaceAbove puts the window directly above target in the z-order without
// making it topmost.
func (w *Window) PlaceAbove(target Handle) error {
	h, err := w.live()
	if err != nil {
		return err
	}
	prev, err := w.driver.PrevWindow(target)
	if err != nil {
		return err
	}
	if prev == h {
		return nil
	}
	return w.driver.InsertAfter(h, prev)
}

func (w *Window) String() string {
	return fmt.Sprintf("overlay.Window{handle: %v, class: %s}", w.Handle(), w.className)
}
