// Package overlaytest provides in-memory implementations of the overlay
// collaborators for use in tests: a window Driver, a Surface, a recording
// Renderer and a manual Clock.
package overlaytest

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-theft-auto/overlay"
	"github.com/go-theft-auto/overlay/internal/osthread"
)

// CodeClose is the message code RequestDestroy posts. The default procedure
// destroys the window when it sees it, like WM_CLOSE does.
const CodeClose = 0x0010

var errNoWindow = errors.New("overlaytest: no such window")

type window struct {
	class   string
	title   string
	bounds  overlay.Rect
	client  overlay.Rect
	origin  overlay.Point
	style   overlay.Style
	exStyle overlay.ExStyle
	visible bool
}

// Driver is an in-memory overlay.Driver. Windows live in a map and a single
// message queue is shared by all threads. Quit requests collapse into one
// flag, as they do on Win32, and are seen only once the queue is empty. The zero value is not usable;
// create one with NewDriver.
type Driver struct {
	// Thread identifies the calling thread. It defaults to the OS thread id.
	Thread func() uint64

	mu        sync.Mutex
	nextID    overlay.Handle
	classes   map[string]overlay.WindowClass
	windows   map[overlay.Handle]*window
	zorder    []overlay.Handle // top first
	calls     map[string]int
	registerE error
	createE   error
	toScreenE error
	quit      bool

	queue chan overlay.Message
	wake  chan struct{}
}

// NewDriver returns an empty driver.
func NewDriver() *Driver {
	return &Driver{
		Thread:  osthread.ID,
		nextID:  0x1000,
		classes: make(map[string]overlay.WindowClass),
		windows: make(map[overlay.Handle]*window),
		calls:   make(map[string]int),
		queue:   make(chan overlay.Message, 256),
		wake:    make(chan struct{}, 1),
	}
}

var _ overlay.Driver = (*Driver)(nil)

func (d *Driver) count(name string) {
	d.calls[name]++
}

// Calls returns how many times the named driver method was called.
func (d *Driver) Calls(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[name]
}

// FailRegister makes RegisterClass return err. Pass nil to clear.
func (d *Driver) FailRegister(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registerE = err
}

// FailCreate makes CreateWindow return err. Pass nil to clear.
func (d *Driver) FailCreate(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.createE = err
}

// FailClientToScreen makes ClientToScreen return err. Pass nil to clear.
func (d *Driver) FailClientToScreen(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.toScreenE = err
}

// AddWindow adds a foreign window without a class, for use as an
// attachment target. Its client area covers the whole window.
func (d *Driver) AddWindow(bounds overlay.Rect) overlay.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()

	h := d.newHandleLocked()
	d.windows[h] = &window{
		bounds:  bounds,
		client:  overlay.RectFromSize(0, 0, bounds.Dx(), bounds.Dy()),
		origin:  bounds.Origin(),
		visible: true,
	}
	d.zorder = append([]overlay.Handle{h}, d.zorder...)
	return h
}

// SetFrame sets the outer rectangle of h, the size of its client area and
// the screen position of the client origin.
func (d *Driver) SetFrame(h overlay.Handle, outer overlay.Rect, clientWidth, clientHeight int, origin overlay.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	w, ok := d.windows[h]
	if !ok {
		return errNoWindow
	}
	w.bounds = outer
	w.client = overlay.RectFromSize(0, 0, clientWidth, clientHeight)
	w.origin = origin
	return nil
}

// ZOrder returns the windows from top to bottom.
func (d *Driver) ZOrder() []overlay.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.zorder)
}

// Classes returns the names of the registered classes.
func (d *Driver) Classes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.classes))
	for name := range d.classes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (d *Driver) newHandleLocked() overlay.Handle {
	d.nextID += 4
	return d.nextID
}

func (d *Driver) lookup(h overlay.Handle) (*window, error) {
	w, ok := d.windows[h]
	if !ok {
		return nil, fmt.Errorf("%w: %v", errNoWindow, h)
	}
	return w, nil
}

// RegisterClass implements overlay.Driver.
func (d *Driver) RegisterClass(c overlay.WindowClass) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.count("RegisterClass")
	if d.registerE != nil {
		return d.registerE
	}
	if _, ok := d.classes[c.Name]; ok {
		return fmt.Errorf("overlaytest: class %q already registered", c.Name)
	}
	d.classes[c.Name] = c
	return nil
}

// UnregisterClass implements overlay.Driver.
func (d *Driver) UnregisterClass(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.count("UnregisterClass")
	if _, ok := d.classes[name]; !ok {
		return fmt.Errorf("overlaytest: class %q not registered", name)
	}
	for _, w := range d.windows {
		if w.class == name {
			return fmt.Errorf("overlaytest: class %q still has windows", name)
		}
	}
	delete(d.classes, name)
	return nil
}

// CreateWindow implements overlay.Driver.
func (d *Driver) CreateWindow(spec overlay.WindowSpec) (overlay.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.count("CreateWindow")
	if d.createE != nil {
		return overlay.InvalidHandle, d.createE
	}
	if _, ok := d.classes[spec.Class]; !ok {
		return overlay.InvalidHandle, fmt.Errorf("overlaytest: class %q not registered", spec.Class)
	}
	h := d.newHandleLocked()
	d.windows[h] = &window{
		class:   spec.Class,
		title:   spec.Title,
		bounds:  spec.Bounds,
		client:  overlay.RectFromSize(0, 0, spec.Bounds.Dx(), spec.Bounds.Dy()),
		origin:  spec.Bounds.Origin(),
		style:   spec.Style,
		exStyle: spec.ExStyle,
		visible: spec.Style&overlay.StyleVisible != 0,
	}
	d.zorder = append([]overlay.Handle{h}, d.zorder...)
	return h, nil
}

// RequestDestroy implements overlay.Driver by posting CodeClose to the
// queue.
func (d *Driver) RequestDestroy(h overlay.Handle) error {
	d.mu.Lock()
	d.count("RequestDestroy")
	_, err := d.lookup(h)
	d.mu.Unlock()
	if err != nil {
		return err
	}
	d.Post(overlay.Message{Window: h, Code: CodeClose})
	return nil
}

// destroy removes h and delivers the destroy messages to its procedure.
func (d *Driver) destroy(h overlay.Handle) {
	d.mu.Lock()
	w, ok := d.windows[h]
	if ok {
		delete(d.windows, h)
		d.zorder = slices.DeleteFunc(d.zorder, func(z overlay.Handle) bool { return z == h })
	}
	var proc overlay.WindowProc
	if ok {
		proc = d.classes[w.class].Proc
	}
	d.mu.Unlock()

	if proc != nil {
		proc(overlay.Message{Window: h, Kind: overlay.MsgDestroy})
		proc(overlay.Message{Window: h, Kind: overlay.MsgNCDestroy})
	}
}

// IsWindow implements overlay.Driver.
func (d *Driver) IsWindow(h overlay.Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.windows[h]
	return ok
}

// IsVisible implements overlay.Driver.
func (d *Driver) IsVisible(h overlay.Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.windows[h]
	return ok && w.visible
}

// Show implements overlay.Driver.
func (d *Driver) Show(h overlay.Handle, visible bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.count("Show")
	w, err := d.lookup(h)
	if err != nil {
		return err
	}
	w.visible = visible
	return nil
}

// Title implements overlay.Driver.
func (d *Driver) Title(h overlay.Handle) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.lookup(h)
	if err != nil {
		return "", err
	}
	return w.title, nil
}

// SetTitle implements overlay.Driver.
func (d *Driver) SetTitle(h overlay.Handle, title string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.lookup(h)
	if err != nil {
		return err
	}
	w.title = title
	return nil
}

// Style implements overlay.Driver.
func (d *Driver) Style(h overlay.Handle) (overlay.Style, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.lookup(h)
	if err != nil {
		return 0, err
	}
	return w.style, nil
}

// SetStyle implements overlay.Driver.
func (d *Driver) SetStyle(h overlay.Handle, s overlay.Style) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.lookup(h)
	if err != nil {
		return err
	}
	w.style = s
	return nil
}

// ExStyle implements overlay.Driver.
func (d *Driver) ExStyle(h overlay.Handle) (overlay.ExStyle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.lookup(h)
	if err != nil {
		return 0, err
	}
	return w.exStyle, nil
}

// SetExStyle implements overlay.Driver.
func (d *Driver) SetExStyle(h overlay.Handle, s overlay.ExStyle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.lookup(h)
	if err != nil {
		return err
	}
	w.exStyle = s
	return nil
}

// WindowRect implements overlay.Geometry.
func (d *Driver) WindowRect(h overlay.Handle) (overlay.Rect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.lookup(h)
	if err != nil {
		return overlay.Rect{}, err
	}
	return w.bounds, nil
}

// ClientRect implements overlay.Geometry.
func (d *Driver) ClientRect(h overlay.Handle) (overlay.Rect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, err := d.lookup(h)
	if err != nil {
		return overlay.Rect{}, err
	}
	return w.client, nil
}

// ClientToScreen implements overlay.Geometry.
func (d *Driver) ClientToScreen(h overlay.Handle, p overlay.Point) (overlay.Point, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.toScreenE != nil {
		return overlay.Point{}, d.toScreenE
	}
	w, err := d.lookup(h)
	if err != nil {
		return overlay.Point{}, err
	}
	return overlay.Point{X: p.X + w.origin.X, Y: p.Y + w.origin.Y}, nil
}

// MoveWindow implements overlay.Geometry.
func (d *Driver) MoveWindow(h overlay.Handle, r overlay.Rect) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.count("MoveWindow")
	w, err := d.lookup(h)
	if err != nil {
		return err
	}
	w.bounds = r
	w.client = overlay.RectFromSize(0, 0, r.Dx(), r.Dy())
	w.origin = r.Origin()
	return nil
}

// SetTopmost implements overlay.ZOrder.
func (d *Driver) SetTopmost(h overlay.Handle, topmost bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.count("SetTopmost")
	w, err := d.lookup(h)
	if err != nil {
		return err
	}
	if topmost {
		w.exStyle |= overlay.ExTopmost
		d.moveLocked(h, 0)
	} else {
		w.exStyle &^= overlay.ExTopmost
	}
	return nil
}

// PrevWindow implements overlay.ZOrder.
func (d *Driver) PrevWindow(h overlay.Handle) (overlay.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := slices.Index(d.zorder, h)
	if i < 0 {
		return overlay.InvalidHandle, fmt.Errorf("%w: %v", errNoWindow, h)
	}
	if i == 0 {
		return overlay.InvalidHandle, nil
	}
	return d.zorder[i-1], nil
}

// InsertAfter implements overlay.ZOrder.
func (d *Driver) InsertAfter(h, after overlay.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.count("InsertAfter")
	if _, err := d.lookup(h); err != nil {
		return err
	}
	if !after.Valid() {
		d.moveLocked(h, 0)
		return nil
	}
	d.zorder = slices.DeleteFunc(d.zorder, func(z overlay.Handle) bool { return z == h })
	i := slices.Index(d.zorder, after)
	if i < 0 {
		return fmt.Errorf("%w: %v", errNoWindow, after)
	}
	d.zorder = slices.Insert(d.zorder, i+1, h)
	return nil
}

func (d *Driver) moveLocked(h overlay.Handle, pos int) {
	d.zorder = slices.DeleteFunc(d.zorder, func(z overlay.Handle) bool { return z == h })
	d.zorder = slices.Insert(d.zorder, pos, h)
}

// ExtendFrameIntoClientArea implements overlay.Compositor.
func (d *Driver) ExtendFrameIntoClientArea(h overlay.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.count("ExtendFrameIntoClientArea")
	_, err := d.lookup(h)
	return err
}

// EnableBlurBehind implements overlay.Compositor.
func (d *Driver) EnableBlurBehind(h overlay.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.count("EnableBlurBehind")
	_, err := d.lookup(h)
	return err
}

// CurrentThread implements overlay.MessagePump.
func (d *Driver) CurrentThread() uint64 {
	return d.Thread()
}

// Post appends m to the message queue.
func (d *Driver) Post(m overlay.Message) {
	d.queue <- m
}

// GetMessage implements overlay.MessagePump.
func (d *Driver) GetMessage() (overlay.Message, bool, error) {
	for {
		select {
		case m := <-d.queue:
			return m, true, nil
		default:
		}

		d.mu.Lock()
		if d.quit {
			d.quit = false
			d.mu.Unlock()
			return overlay.Message{}, false, nil
		}
		d.mu.Unlock()

		select {
		case m := <-d.queue:
			return m, true, nil
		case <-d.wake:
		}
	}
}

// DispatchMessage implements overlay.MessagePump.
func (d *Driver) DispatchMessage(m overlay.Message) {
	d.Send(m)
}

// Send delivers m to the procedure of its window synchronously and
// returns the result. Messages for windows without a procedure go to
// DefaultProc.
func (d *Driver) Send(m overlay.Message) uintptr {
	d.mu.Lock()
	var proc overlay.WindowProc
	if w, ok := d.windows[m.Window]; ok {
		proc = d.classes[w.class].Proc
	}
	d.mu.Unlock()

	if proc == nil {
		return d.DefaultProc(m)
	}
	return proc(m)
}

// WaitMessage implements overlay.MessagePump. GetMessage already blocks,
// so it only counts the call.
func (d *Driver) WaitMessage() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count("WaitMessage")
	return nil
}

// PostQuit implements overlay.MessagePump.
func (d *Driver) PostQuit(code int) {
	d.mu.Lock()
	d.count("PostQuit")
	d.quit = true
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// SendPaint implements overlay.MessagePump.
func (d *Driver) SendPaint(h overlay.Handle) {
	d.mu.Lock()
	d.count("SendPaint")
	d.mu.Unlock()
	d.Send(overlay.Message{Window: h, Kind: overlay.MsgPaint})
}

// DefaultProc implements overlay.MessagePump. CodeClose destroys the
// window.
func (d *Driver) DefaultProc(m overlay.Message) uintptr {
	d.mu.Lock()
	d.count("DefaultProc")
	d.mu.Unlock()

	if m.Kind == overlay.MsgOther && m.Code == CodeClose {
		d.destroy(m.Window)
	}
	return 0
}
