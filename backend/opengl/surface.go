// Package opengl provides an OpenGL 4.1 drawing surface for overlay
// windows. It draws solid rectangles and lines into a transparent
// framebuffer.
package opengl

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"runtime"
	"sync"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/go-theft-auto/overlay"
)

// Context gives access to the GL context of a window. GL calls are only
// made while the context is current on the calling thread, so the surface
// makes it current around every operation and detaches it afterwards.
// Every successful MakeCurrent is paired with DetachCurrent on the same
// goroutine, and that goroutine stays on one OS thread in between.
// backend/glfwhost implements it.
type Context interface {
	MakeCurrent(h overlay.Handle) error
	DetachCurrent(h overlay.Handle)
	SwapBuffers(h overlay.Handle) error
}

var errAlreadySetUp = errors.New("opengl: surface already set up")

// glInit loads the GL function pointers once per process.
var glInit = sync.OnceValue(gl.Init)

// Surface implements overlay.Surface on OpenGL.
//
// A Renderer draws a frame with BeginFrame, any number of FillRect,
// StrokeRect and DrawLine calls, and EndFrame.
type Surface struct {
	ctx Context

	mu       sync.Mutex
	handle   overlay.Handle
	width    int
	height   int
	ready    bool
	inFrame  bool
	clear    color.Color
	shader   uint32
	vao, vbo uint32
	projLoc  int32
	batch    batch
}

var _ overlay.Surface = (*Surface)(nil)

// NewSurface creates a surface drawing through ctx. The framebuffer is
// cleared to fully transparent unless SetClearColor is called.
func NewSurface(ctx Context) *Surface {
	return &Surface{ctx: ctx, clear: color.Transparent}
}

// Setup implements overlay.Surface.
func (s *Surface) Setup(h overlay.Handle, width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return errAlreadySetUp
	}
	return s.withContext(h, func() error {
		return s.setupLocked(h, width, height)
	})
}

// withContext runs fn with the context of h current. The goroutine is
// locked to its thread for the duration, since Setup and Release may be
// called from any goroutine.
func (s *Surface) withContext(h overlay.Handle, fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := s.ctx.MakeCurrent(h); err != nil {
		return fmt.Errorf("opengl: make current: %w", err)
	}
	defer s.ctx.DetachCurrent(h)
	return fn()
}

func (s *Surface) setupLocked(h overlay.Handle, width, height int) error {
	if err := glInit(); err != nil {
		return fmt.Errorf("opengl: gl init: %w", err)
	}

	shader, err := linkProgram(
		stage{kind: gl.VERTEX_SHADER, name: "vertex", source: vertexShaderSource},
		stage{kind: gl.FRAGMENT_SHADER, name: "fragment", source: fragmentShaderSource},
	)
	if err != nil {
		return fmt.Errorf("opengl: shader: %w", err)
	}
	s.shader = shader
	s.projLoc = gl.GetUniformLocation(s.shader, gl.Str("projection\x00"))

	gl.GenVertexArrays(1, &s.vao)
	gl.BindVertexArray(s.vao)
	gl.GenBuffers(1, &s.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)

	stride := int32(unsafe.Sizeof(vertex{}))
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 4, gl.FLOAT, false, stride, unsafe.Offsetof(vertex{}.R))
	gl.EnableVertexAttribArray(1)
	gl.BindVertexArray(0)

	s.handle, s.width, s.height = h, width, height
	s.ready = true
	return nil
}

// Resize implements overlay.Surface. The viewport follows on the next
// BeginFrame.
func (s *Surface) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return overlay.ErrNotInitialized
	}
	s.width, s.height = width, height
	return nil
}

// Size implements overlay.Surface.
func (s *Surface) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Release implements overlay.Surface.
func (s *Surface) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil
	}
	s.ready = false
	s.inFrame = false
	err := s.withContext(s.handle, func() error {
		if s.vbo != 0 {
			gl.DeleteBuffers(1, &s.vbo)
		}
		if s.vao != 0 {
			gl.DeleteVertexArrays(1, &s.vao)
		}
		if s.shader != 0 {
			gl.DeleteProgram(s.shader)
		}
		return nil
	})
	if err != nil {
		// The window is gone and took the context with it.
		overlay.Logger().Debug("opengl: release without context", "err", err)
	}
	s.vbo, s.vao, s.shader = 0, 0, 0
	return nil
}

// SetClearColor sets the color the framebuffer is cleared to at the start
// of every frame.
func (s *Surface) SetClearColor(c color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear = c
}

// BeginFrame makes the context current and clears the framebuffer. The
// context stays current until EndFrame, so both must be called from a
// goroutine locked to its OS thread, such as the render goroutine.
func (s *Surface) BeginFrame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return overlay.ErrNotInitialized
	}
	if err := s.ctx.MakeCurrent(s.handle); err != nil {
		return fmt.Errorf("opengl: make current: %w", err)
	}
	s.inFrame = true
	s.batch.reset()

	r, g, b, a := toFloats(s.clear)
	gl.Viewport(0, 0, int32(s.width), int32(s.height))
	gl.ClearColor(r*a, g*a, b*a, a)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return nil
}

// FillRect queues a filled rectangle in surface coordinates.
func (s *Surface) FillRect(r overlay.Rect, c color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch.rect(r, c)
}

// StrokeRect queues the outline of r, width pixels thick, drawn inside r.
func (s *Surface) StrokeRect(r overlay.Rect, width int, c color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch.strokeRect(r, width, c)
}

// DrawLine queues a line segment.
func (s *Surface) DrawLine(from, to overlay.Point, width float32, c color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch.line(from, to, width, c)
}

// Capture draws the queued primitives and reads the back buffer into an
// image. It must be called between BeginFrame and EndFrame.
func (s *Surface) Capture() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inFrame {
		return nil, errors.New("opengl: Capture outside a frame")
	}
	s.flushLocked()

	w, h := s.width, s.height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 {
		return img, nil
	}
	gl.ReadBuffer(gl.BACK)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	flipRows(img)
	return img, nil
}

// flipRows turns GL's bottom-up row order into image order.
func flipRows(img *image.RGBA) {
	h := img.Rect.Dy()
	row := make([]byte, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bot := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bot)
		copy(bot, row)
	}
}

// EndFrame draws the queued primitives, presents the frame and detaches
// the context.
func (s *Surface) EndFrame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inFrame {
		return errors.New("opengl: EndFrame without BeginFrame")
	}
	s.inFrame = false
	defer s.ctx.DetachCurrent(s.handle)

	s.flushLocked()
	if err := s.ctx.SwapBuffers(s.handle); err != nil {
		return fmt.Errorf("opengl: swap buffers: %w", err)
	}
	return nil
}

func (s *Surface) flushLocked() {
	n := len(s.batch.verts)
	if n == 0 {
		return
	}
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.DEPTH_TEST)

	gl.UseProgram(s.shader)
	proj := orthoMatrix(0, float32(s.width), float32(s.height), 0, -1, 1)
	gl.UniformMatrix4fv(s.projLoc, 1, false, &proj[0])

	gl.BindVertexArray(s.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, n*int(unsafe.Sizeof(vertex{})), gl.Ptr(s.batch.verts), gl.STREAM_DRAW)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(n))
	gl.BindVertexArray(0)
	gl.UseProgram(0)
	s.batch.reset()
}
