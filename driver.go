package overlay

// Geometry reads and moves window rectangles. All rectangles are in screen
// coordinates except ClientRect, which is relative to the client origin.
type Geometry interface {
	WindowRect(h Handle) (Rect, error)
	ClientRect(h Handle) (Rect, error)
	ClientToScreen(h Handle, p Point) (Point, error)
	MoveWindow(h Handle, r Rect) error
}

// ZOrder manipulates the stacking order of windows.
type ZOrder interface {
	// SetTopmost inserts the window into, or removes it from, the topmost band
	// without activating it.
	SetTopmost(h Handle, topmost bool) error

	// PrevWindow returns the window directly above h in the z-order, or
	// InvalidHandle if h is on top.
	PrevWindow(h Handle) (Handle, error)

	// InsertAfter places h directly below after without moving, sizing or
	// activating it. InvalidHandle as after places h on top.
	InsertAfter(h, after Handle) error
}

// Compositor controls desktop composition effects.
type Compositor interface {
	// ExtendFrameIntoClientArea makes the compositor treat the whole window
	// as frame so per-pixel alpha is honored.
	ExtendFrameIntoClientArea(h Handle) error

	// EnableBlurBehind blurs whatever is behind the window.
	EnableBlurBehind(h Handle) error
}

// MessagePump exposes the primitives of a platform message loop.
type MessagePump interface {
	// CurrentThread identifies the calling OS thread.
	CurrentThread() uint64

	// GetMessage blocks for the next message of the calling thread. It
	// returns false once a quit signal was retrieved.
	GetMessage() (Message, bool, error)

	// DispatchMessage translates m and delivers it to its window procedure.
	DispatchMessage(m Message)

	// WaitMessage idles until new input arrives.
	WaitMessage() error

	// PostQuit posts a quit signal to the calling thread's queue.
	PostQuit(code int)

	// SendPaint delivers a paint message to h synchronously.
	SendPaint(h Handle)

	// DefaultProc runs the platform's default handling for m.
	DefaultProc(m Message) uintptr
}

// WindowClass describes a class to register with the platform.
type WindowClass struct {
	Name string
	Menu string
	Proc WindowProc
}

// WindowSpec describes a window to create.
type WindowSpec struct {
	Class   string
	Title   string
	Bounds  Rect
	Style   Style
	ExStyle ExStyle
}

// Driver is the OS window subsystem an overlay runs on. Implementations live
// under backend/; overlaytest provides an in-memory one.
type Driver interface {
	Geometry
	ZOrder
	Compositor
	MessagePump

	RegisterClass(c WindowClass) error
	UnregisterClass(name string) error

	// CreateWindow creates a window of a registered class. Layered windows
	// are created fully opaque at the layer level so that per-pixel alpha
	// decides transparency.
	CreateWindow(spec WindowSpec) (Handle, error)

	// RequestDestroy asks the owner thread to destroy h. It does not wait.
	RequestDestroy(h Handle) error

	IsWindow(h Handle) bool
	IsVisible(h Handle) bool
	Show(h Handle, visible bool) error

	Title(h Handle) (string, error)
	SetTitle(h Handle, title string) error

	Style(h Handle) (Style, error)
	SetStyle(h Handle, s Style) error
	ExStyle(h Handle) (ExStyle, error)
	SetExStyle(h Handle, s ExStyle) error
}

// Surface is the drawing surface bound to a window. It is implemented by
// rendering backends, for example backend/opengl.
type Surface interface {
	// Setup binds the surface to the window and allocates device resources
	// at the given size. Setup may be called again after Release.
	Setup(h Handle, width, height int) error

	// Resize changes the size of the render target.
	Resize(width, height int) error

	// Size reports the current render target size.
	Size() (width, height int)

	// Release frees device resources.
	Release() error
}

// Renderer receives the lifecycle notifications of a Canvas.
//
// Notifications run on the render goroutine (or on the goroutine calling
// Initialize, Recreate or Close). Draw runs with the draw lock held; Setup
// and Destroy run with the canvas object lock held. Calling Initialize,
// Recreate or SafeDraw from inside a notification deadlocks.
type Renderer interface {
	// Setup is called after the surface was set up. recreate is true when
	// it follows Recreate: device-dependent resources such as brushes and
	// fonts must be rebuilt, resources the renderer loaded itself survive.
	Setup(s Surface, recreate bool)

	// Draw renders one frame.
	Draw(s Surface, f Frame)

	// Destroy is called before the surface is released, once per Setup.
	Destroy(s Surface)
}

// RendererFuncs adapts plain functions to the Renderer interface. Nil fields
// are skipped.
type RendererFuncs struct {
	OnSetup   func(s Surface, recreate bool)
	OnDraw    func(s Surface, f Frame)
	OnDestroy func(s Surface)
}

// Setup implements Renderer.
func (r RendererFuncs) Setup(s Surface, recreate bool) {
	if r.OnSetup != nil {
		r.OnSetup(s, recreate)
	}
}

// Draw implements Renderer.
func (r RendererFuncs) Draw(s Surface, f Frame) {
	if r.OnDraw != nil {
		r.OnDraw(s, f)
	}
}

// Destroy implements Renderer.
func (r RendererFuncs) Destroy(s Surface) {
	if r.OnDestroy != nil {
		r.OnDestroy(s)
	}
}

// PreDrawHook runs on every tick right before the Draw notification, under
// the draw lock. Attachments use it to follow their target window.
type PreDrawHook interface {
	BeforeDraw(f Frame)
}
