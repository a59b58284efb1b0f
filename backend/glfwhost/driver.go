// Package glfwhost runs overlay windows on GLFW 3.3. Windows are
// undecorated, floating and have a transparent framebuffer with an OpenGL
// 4.1 core context, so an opengl.Surface can draw into them.
//
// GLFW only allows window management on the main thread. The Driver must
// be created on the main thread (see runtime.LockOSThread), and so must
// every overlay window; their MessageLoop runs there too. Window changes
// requested from other goroutines, such as the render loop of an attached
// overlay, are queued and applied by the message loop.
//
// GLFW 3.3 has no mouse passthrough, so ExTransparent is not honored and
// the overlay still receives clicks. Foreign windows are not visible to
// GLFW: attachment targets and z-order queries return
// overlay.ErrUnsupported.
package glfwhost

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/go-theft-auto/overlay"
	"github.com/go-theft-auto/overlay/internal/osthread"
)

// codeClose is the message code posted by RequestDestroy. It matches
// WM_CLOSE so message hooks see familiar values.
const codeClose = 0x0010

type window struct {
	win     *glfw.Window
	class   string
	title   string
	bounds  overlay.Rect
	style   overlay.Style
	exStyle overlay.ExStyle
	visible bool

	// ctxMu is held while the GL context is current on some thread; the
	// window is only destroyed with it held.
	ctxMu sync.Mutex
	gone  bool
}

// Driver implements overlay.Driver and opengl.Context on GLFW.
type Driver struct {
	main uint64
	log  *slog.Logger

	mu      sync.Mutex
	nextID  overlay.Handle
	classes map[string]overlay.WindowClass
	windows map[overlay.Handle]*window
	byGLFW  map[*glfw.Window]overlay.Handle
	pending []func()
	msgs    []overlay.Message
	quit    bool

	warnOnce sync.Once
}

var _ overlay.Driver = (*Driver)(nil)

// New initializes GLFW. It must be called on the main thread, which then
// owns every window of the driver.
func New() (*Driver, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}
	return &Driver{
		main:    osthread.ID(),
		log:     overlay.Logger(),
		nextID:  0x100,
		classes: make(map[string]overlay.WindowClass),
		windows: make(map[overlay.Handle]*window),
		byGLFW:  make(map[*glfw.Window]overlay.Handle),
	}, nil
}

// Terminate destroys the remaining windows and shuts GLFW down. Call it on
// the main thread after every window was closed.
func (d *Driver) Terminate() {
	glfw.Terminate()
}

func (d *Driver) onMain() bool {
	return osthread.ID() == d.main
}

// do runs fn on the main thread: right away when called there, otherwise
// on the next pass of the message loop.
func (d *Driver) do(fn func()) {
	if d.onMain() {
		fn()
		return
	}
	d.mu.Lock()
	d.pending = append(d.pending, fn)
	d.mu.Unlock()
	glfw.PostEmptyEvent()
}

func (d *Driver) runPending() {
	d.mu.Lock()
	fns := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (d *Driver) post(m overlay.Message) {
	d.mu.Lock()
	d.msgs = append(d.msgs, m)
	d.mu.Unlock()
}

func (d *Driver) lookup(h overlay.Handle) (*window, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	w, ok := d.windows[h]
	if !ok {
		return nil, overlay.ErrInvalidHandle
	}
	return w, nil
}

func (d *Driver) procFor(h overlay.Handle) overlay.WindowProc {
	d.mu.Lock()
	defer d.mu.Unlock()

	w, ok := d.windows[h]
	if !ok {
		return nil
	}
	return d.classes[w.class].Proc
}

// RegisterClass implements overlay.Driver.
func (d *Driver) RegisterClass(c overlay.WindowClass) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.classes[c.Name]; ok {
		return fmt.Errorf("glfwhost: class %q already registered", c.Name)
	}
	d.classes[c.Name] = c
	return nil
}

// UnregisterClass implements overlay.Driver.
func (d *Driver) UnregisterClass(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.classes[name]; !ok {
		return fmt.Errorf("glfwhost: class %q not registered", name)
	}
	for _, w := range d.windows {
		if w.class == name {
			return fmt.Errorf("glfwhost: class %q still has windows", name)
		}
	}
	delete(d.classes, name)
	return nil
}

// CreateWindow implements overlay.Driver.
func (d *Driver) CreateWindow(spec overlay.WindowSpec) (overlay.Handle, error) {
	if !d.onMain() {
		return overlay.InvalidHandle, overlay.ErrWrongThread
	}
	d.mu.Lock()
	_, ok := d.classes[spec.Class]
	d.mu.Unlock()
	if !ok {
		return overlay.InvalidHandle, fmt.Errorf("glfwhost: class %q not registered", spec.Class)
	}
	if spec.ExStyle&overlay.ExTransparent != 0 {
		d.warnOnce.Do(func() {
			d.log.Warn("glfwhost: click-through is not available with GLFW 3.3")
		})
	}

	glfw.DefaultWindowHints()
	for _, h := range windowHints(spec) {
		glfw.WindowHint(h.key, h.value)
	}
	win, err := glfw.CreateWindow(spec.Bounds.Dx(), spec.Bounds.Dy(), spec.Title, nil, nil)
	if err != nil {
		return overlay.InvalidHandle, fmt.Errorf("create window: %w", err)
	}
	win.SetPos(spec.Bounds.Left, spec.Bounds.Top)

	d.mu.Lock()
	d.nextID += 4
	h := d.nextID
	d.windows[h] = &window{
		win:     win,
		class:   spec.Class,
		title:   spec.Title,
		bounds:  spec.Bounds,
		style:   spec.Style,
		exStyle: spec.ExStyle,
		visible: spec.Style&overlay.StyleVisible != 0,
	}
	d.byGLFW[win] = h
	d.mu.Unlock()

	win.SetCloseCallback(d.closeCallback)
	win.SetRefreshCallback(d.refreshCallback)
	win.SetPosCallback(d.posCallback)
	win.SetSizeCallback(d.sizeCallback)
	win.SetContentScaleCallback(d.contentScaleCallback)
	return h, nil
}

type hint struct {
	key   glfw.Hint
	value int
}

func glfwBool(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

// windowHints translates overlay styles into GLFW creation hints.
func windowHints(spec overlay.WindowSpec) []hint {
	noActivate := spec.ExStyle&overlay.ExNoActivate != 0
	return []hint{
		{glfw.ContextVersionMajor, 4},
		{glfw.ContextVersionMinor, 1},
		{glfw.OpenGLProfile, glfw.OpenGLCoreProfile},
		{glfw.OpenGLForwardCompatible, glfw.True},
		{glfw.Decorated, glfwBool(spec.Style&overlay.StylePopup == 0)},
		{glfw.Resizable, glfw.False},
		{glfw.Floating, glfwBool(spec.ExStyle&overlay.ExTopmost != 0)},
		{glfw.TransparentFramebuffer, glfwBool(spec.ExStyle&overlay.ExLayered != 0)},
		{glfw.Visible, glfwBool(spec.Style&overlay.StyleVisible != 0)},
		{glfw.Focused, glfwBool(!noActivate)},
		{glfw.FocusOnShow, glfwBool(!noActivate)},
	}
}

func (d *Driver) handleOf(win *glfw.Window) overlay.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.byGLFW[win]
}

func (d *Driver) closeCallback(win *glfw.Window) {
	win.SetShouldClose(false)
	if h := d.handleOf(win); h.Valid() {
		d.post(overlay.Message{Window: h, Code: codeClose})
	}
}

func (d *Driver) refreshCallback(win *glfw.Window) {
	if h := d.handleOf(win); h.Valid() {
		d.post(overlay.Message{Window: h, Kind: overlay.MsgPaint})
	}
}

func (d *Driver) posCallback(win *glfw.Window, x, y int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w, ok := d.windows[d.byGLFW[win]]; ok {
		w.bounds = overlay.RectFromSize(x, y, w.bounds.Dx(), w.bounds.Dy())
	}
}

func (d *Driver) sizeCallback(win *glfw.Window, width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w, ok := d.windows[d.byGLFW[win]]; ok {
		w.bounds = overlay.RectFromSize(w.bounds.Left, w.bounds.Top, width, height)
	}
}

func (d *Driver) contentScaleCallback(win *glfw.Window, x, y float32) {
	if h := d.handleOf(win); h.Valid() {
		d.post(overlay.Message{Window: h, Kind: overlay.MsgDPIChanged})
	}
}

// RequestDestroy implements overlay.Driver.
func (d *Driver) RequestDestroy(h overlay.Handle) error {
	if _, err := d.lookup(h); err != nil {
		return err
	}
	d.post(overlay.Message{Window: h, Code: codeClose})
	glfw.PostEmptyEvent()
	return nil
}

// Destroy destroys h right away. Unlike RequestDestroy it needs no
// message loop, but it must be called on the main thread.
func (d *Driver) Destroy(h overlay.Handle) error {
	if !d.onMain() {
		return overlay.ErrWrongThread
	}
	if _, err := d.lookup(h); err != nil {
		return err
	}
	d.destroy(h)
	return nil
}

// destroy runs on the main thread.
func (d *Driver) destroy(h overlay.Handle) {
	w, err := d.lookup(h)
	if err != nil {
		return
	}

	// Wait for a frame in flight; DetachCurrent still finds the window.
	w.ctxMu.Lock()
	d.mu.Lock()
	delete(d.windows, h)
	delete(d.byGLFW, w.win)
	proc := d.classes[w.class].Proc
	d.mu.Unlock()
	w.gone = true
	w.win.Destroy()
	w.ctxMu.Unlock()

	if proc != nil {
		proc(overlay.Message{Window: h, Kind: overlay.MsgDestroy})
		proc(overlay.Message{Window: h, Kind: overlay.MsgNCDestroy})
	}
}

// IsWindow implements overlay.Driver.
func (d *Driver) IsWindow(h overlay.Handle) bool {
	_, err := d.lookup(h)
	return err == nil
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
	w, err := d.lookup(h)
	if err != nil {
		return err
	}
	d.mu.Lock()
	w.visible = visible
	d.mu.Unlock()

	d.do(func() {
		if visible {
			w.win.Show()
		} else {
			w.win.Hide()
		}
	})
	return nil
}

// Title implements overlay.Driver.
func (d *Driver) Title(h overlay.Handle) (string, error) {
	w, err := d.lookup(h)
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return w.title, nil
}

// SetTitle implements overlay.Driver.
func (d *Driver) SetTitle(h overlay.Handle, title string) error {
	w, err := d.lookup(h)
	if err != nil {
		return err
	}
	d.mu.Lock()
	w.title = title
	d.mu.Unlock()

	d.do(func() { w.win.SetTitle(title) })
	return nil
}

// Style implements overlay.Driver.
func (d *Driver) Style(h overlay.Handle) (overlay.Style, error) {
	w, err := d.lookup(h)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return w.style, nil
}

// SetStyle implements overlay.Driver. Only StyleVisible has an effect.
func (d *Driver) SetStyle(h overlay.Handle, s overlay.Style) error {
	w, err := d.lookup(h)
	if err != nil {
		return err
	}
	d.mu.Lock()
	w.style = s
	d.mu.Unlock()
	return d.Show(h, s&overlay.StyleVisible != 0)
}

// ExStyle implements overlay.Driver.
func (d *Driver) ExStyle(h overlay.Handle) (overlay.ExStyle, error) {
	w, err := d.lookup(h)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return w.exStyle, nil
}

// SetExStyle implements overlay.Driver. Only ExTopmost has an effect.
func (d *Driver) SetExStyle(h overlay.Handle, s overlay.ExStyle) error {
	w, err := d.lookup(h)
	if err != nil {
		return err
	}
	d.mu.Lock()
	w.exStyle = s
	d.mu.Unlock()

	floating := glfwBool(s&overlay.ExTopmost != 0)
	d.do(func() { w.win.SetAttrib(glfw.Floating, floating) })
	return nil
}

// WindowRect implements overlay.Geometry.
func (d *Driver) WindowRect(h overlay.Handle) (overlay.Rect, error) {
	w, err := d.lookup(h)
	if err != nil {
		return overlay.Rect{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return w.bounds, nil
}

// ClientRect implements overlay.Geometry. Windows have no decorations, so
// the client area is the whole window.
func (d *Driver) ClientRect(h overlay.Handle) (overlay.Rect, error) {
	r, err := d.WindowRect(h)
	if err != nil {
		return overlay.Rect{}, err
	}
	return overlay.RectFromSize(0, 0, r.Dx(), r.Dy()), nil
}

// ClientToScreen implements overlay.Geometry.
func (d *Driver) ClientToScreen(h overlay.Handle, p overlay.Point) (overlay.Point, error) {
	r, err := d.WindowRect(h)
	if err != nil {
		return overlay.Point{}, err
	}
	return overlay.Point{X: r.Left + p.X, Y: r.Top + p.Y}, nil
}

// MoveWindow implements overlay.Geometry. The new rectangle is reported
// right away even when the move itself is still queued.
func (d *Driver) MoveWindow(h overlay.Handle, r overlay.Rect) error {
	w, err := d.lookup(h)
	if err != nil {
		return err
	}
	d.mu.Lock()
	w.bounds = r
	d.mu.Unlock()

	d.do(func() {
		w.win.SetPos(r.Left, r.Top)
		w.win.SetSize(r.Dx(), r.Dy())
	})
	return nil
}

// SetTopmost implements overlay.ZOrder.
func (d *Driver) SetTopmost(h overlay.Handle, topmost bool) error {
	s, err := d.ExStyle(h)
	if err != nil {
		return err
	}
	if topmost {
		s |= overlay.ExTopmost
	} else {
		s &^= overlay.ExTopmost
	}
	return d.SetExStyle(h, s)
}

// PrevWindow implements overlay.ZOrder. GLFW does not expose the z-order.
func (d *Driver) PrevWindow(h overlay.Handle) (overlay.Handle, error) {
	return overlay.InvalidHandle, overlay.ErrUnsupported
}

// InsertAfter implements overlay.ZOrder. GLFW does not expose the z-order.
func (d *Driver) InsertAfter(h, after overlay.Handle) error {
	return overlay.ErrUnsupported
}

// ExtendFrameIntoClientArea implements overlay.Compositor. The transparent
// framebuffer already covers the whole window.
func (d *Driver) ExtendFrameIntoClientArea(h overlay.Handle) error {
	_, err := d.lookup(h)
	return err
}

// EnableBlurBehind implements overlay.Compositor.
func (d *Driver) EnableBlurBehind(h overlay.Handle) error {
	return overlay.ErrUnsupported
}

// CurrentThread implements overlay.MessagePump.
func (d *Driver) CurrentThread() uint64 {
	return osthread.ID()
}

// GetMessage implements overlay.MessagePump. It applies queued window
// changes and waits for GLFW events until a message is available.
func (d *Driver) GetMessage() (overlay.Message, bool, error) {
	if !d.onMain() {
		return overlay.Message{}, false, overlay.ErrWrongThread
	}
	for {
		d.runPending()

		d.mu.Lock()
		if len(d.msgs) > 0 {
			m := d.msgs[0]
			d.msgs = d.msgs[1:]
			d.mu.Unlock()
			return m, true, nil
		}
		if d.quit {
			d.quit = false
			d.mu.Unlock()
			return overlay.Message{}, false, nil
		}
		d.mu.Unlock()

		glfw.WaitEvents()
	}
}

// DispatchMessage implements overlay.MessagePump.
func (d *Driver) DispatchMessage(m overlay.Message) {
	if proc := d.procFor(m.Window); proc != nil {
		proc(m)
		return
	}
	d.DefaultProc(m)
}

// WaitMessage implements overlay.MessagePump. GetMessage already waits for
// events, so there is nothing to do.
func (d *Driver) WaitMessage() error {
	return nil
}

// PostQuit implements overlay.MessagePump.
func (d *Driver) PostQuit(code int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quit = true
}

// SendPaint implements overlay.MessagePump.
func (d *Driver) SendPaint(h overlay.Handle) {
	if proc := d.procFor(h); proc != nil {
		proc(overlay.Message{Window: h, Kind: overlay.MsgPaint})
	}
}

// DefaultProc implements overlay.MessagePump. A close request destroys
// the window.
func (d *Driver) DefaultProc(m overlay.Message) uintptr {
	if m.Kind == overlay.MsgOther && m.Code == codeClose {
		d.do(func() { d.destroy(m.Window) })
	}
	return 0
}

// MakeCurrent makes the GL context of h current on the calling thread. It
// blocks destruction of h until DetachCurrent.
func (d *Driver) MakeCurrent(h overlay.Handle) error {
	w, err := d.lookup(h)
	if err != nil {
		return err
	}
	w.ctxMu.Lock()
	if w.gone {
		w.ctxMu.Unlock()
		return overlay.ErrInvalidHandle
	}
	w.win.MakeContextCurrent()
	return nil
}

// DetachCurrent releases the context made current by MakeCurrent.
func (d *Driver) DetachCurrent(h overlay.Handle) {
	glfw.DetachCurrentContext()

	d.mu.Lock()
	w, ok := d.windows[h]
	d.mu.Unlock()
	if ok {
		w.ctxMu.Unlock()
	}
}

// SwapBuffers presents the back buffer of h. The context must be current.
func (d *Driver) SwapBuffers(h overlay.Handle) error {
	w, err := d.lookup(h)
	if err != nil {
		return err
	}
	w.win.SwapBuffers()
	return nil
}
