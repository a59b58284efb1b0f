package overlay

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Canvas binds a drawing Surface to a window and drives it from a
// RenderLoop. It delivers Setup, Draw and Destroy notifications to a
// Renderer and resizes the surface whenever the window size changes.
//
// Two locks are involved. The object lock serializes Initialize, Recreate
// and Close. The draw lock serializes the resize check and the Draw
// notification; DrawLock exposes it to callers that touch the surface from
// other goroutines. The object lock is always taken before the draw lock.
type Canvas struct {
	geom     Geometry
	surface  Surface
	renderer Renderer
	hooks    []PreDrawHook
	clock    Clock
	log      *slog.Logger
	loop     *RenderLoop

	mu     sync.Mutex // object lock
	closed bool
	err    error

	drawMu      sync.Mutex // draw lock
	handle      Handle     // written under both locks
	initialized bool       // written under both locks
	frameCount  int
	lastDraw    time.Duration
}

// NewCanvas creates a canvas drawing into the window h. The render loop is
// idle unless WithFPS is given.
func NewCanvas(g Geometry, h Handle, s Surface, r Renderer, opts ...Option) *Canvas {
	cfg := newConfig(opts)
	c := newCanvas(g, h, s, r, cfg)
	if cfg.fps != 0 {
		_ = c.SetFPS(cfg.fps)
	}
	return c
}

func newCanvas(g Geometry, h Handle, s Surface, r Renderer, cfg config) *Canvas {
	if r == nil {
		r = RendererFuncs{}
	}
	c := &Canvas{
		geom:     g,
		surface:  s,
		renderer: r,
		hooks:    slices.Clone(cfg.hooks),
		clock:    cfg.clock,
		log:      cfg.logger,
		handle:   h,
	}
	c.loop = newRenderLoop(c.tick, cfg)
	return c
}

// Handle returns the window the canvas draws into.
func (c *Canvas) Handle() Handle {
	c.drawMu.Lock()
	defer c.drawMu.Unlock()
	return c.handle
}

// Surface returns the drawing surface.
func (c *Canvas) Surface() Surface {
	return c.surface
}

// DrawLock returns the lock held while a frame is drawn.
func (c *Canvas) DrawLock() sync.Locker {
	return &c.drawMu
}

// AddPreDrawHook registers h to run before every Draw.
func (c *Canvas) AddPreDrawHook(h PreDrawHook) {
	if h == nil {
		return
	}
	c.drawMu.Lock()
	defer c.drawMu.Unlock()
	c.hooks = append(c.hooks, h)
}

// Bounds returns the current rectangle of the target window.
func (c *Canvas) Bounds() (Rect, error) {
	return c.geom.WindowRect(c.Handle())
}

// FPS returns the target frame rate; 0 means stopped.
func (c *Canvas) FPS() uint32 {
	return c.loop.FPS()
}

// SetFPS sets the target frame rate. If the rate becomes non-zero a render
// goroutine is started and Draw fires periodically.
func (c *Canvas) SetFPS(fps uint32) error {
	return c.loop.SetFPS(fps)
}

// Running reports whether the render loop is active.
func (c *Canvas) Running() bool {
	return c.loop.Running()
}

// SetRunning is equivalent to setting the rate to zero (false) or to the
// last non-zero rate, 60 by default (true).
func (c *Canvas) SetRunning(run bool) error {
	return c.loop.SetRunning(run)
}

// Join blocks until the render goroutine has exited.
func (c *Canvas) Join() error {
	return c.loop.Join()
}

// Err returns the error that stopped the render loop, if any.
func (c *Canvas) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Initialize sets the surface up if that has not happened yet and fires
// Setup. It reports whether setup ran.
func (c *Canvas) Initialize() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, ErrClosed
	}
	return c.initializeLocked()
}

func (c *Canvas) initializeLocked() (bool, error) {
	if c.initialized {
		return false, nil
	}
	h := c.handle
	r, err := c.geom.WindowRect(h)
	if err != nil {
		return false, fmt.Errorf("overlay: window rect: %w", err)
	}
	if err := c.surface.Setup(h, r.Dx(), r.Dy()); err != nil {
		return false, fmt.Errorf("overlay: surface setup: %w", err)
	}
	c.renderer.Setup(c.surface, false)

	c.drawMu.Lock()
	c.initialized = true
	c.drawMu.Unlock()

	c.log.Debug("overlay: surface initialized", "handle", h, "width", r.Dx(), "height", r.Dy())
	return true, nil
}

// SafeDraw draws one frame under the draw lock: it resizes the surface if
// the window size changed, advances the frame counter, runs the pre-draw
// hooks and fires Draw.
func (c *Canvas) SafeDraw() error {
	c.drawMu.Lock()
	defer c.drawMu.Unlock()

	if !c.initialized {
		return ErrNotInitialized
	}
	r, err := c.geom.WindowRect(c.handle)
	if err != nil {
		return fmt.Errorf("overlay: window rect: %w", err)
	}
	if w, h := c.surface.Size(); w != r.Dx() || h != r.Dy() {
		if err := c.surface.Resize(r.Dx(), r.Dy()); err != nil {
			return fmt.Errorf("overlay: surface resize: %w", err)
		}
	}

	c.frameCount++
	now := c.clock.Now()
	f := Frame{Count: c.frameCount, Time: now, Delta: now - c.lastDraw}
	c.lastDraw = now

	for _, hook := range c.hooks {
		hook.BeforeDraw(f)
	}
	c.renderer.Draw(c.surface, f)
	return nil
}

// Recreate fires Destroy, rebinds the surface to h (or to the current
// window when h is InvalidHandle), sets it up again and fires Setup with
// recreate set.
func (c *Canvas) Recreate(h Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.drawMu.Lock()
	was := c.initialized
	c.initialized = false
	if h.Valid() {
		c.handle = h
	}
	h = c.handle
	c.drawMu.Unlock()

	if was {
		c.renderer.Destroy(c.surface)
		if err := c.surface.Release(); err != nil {
			return fmt.Errorf("overlay: surface release: %w", err)
		}
	}

	r, err := c.geom.WindowRect(h)
	if err != nil {
		return fmt.Errorf("overlay: window rect: %w", err)
	}
	if err := c.surface.Setup(h, r.Dx(), r.Dy()); err != nil {
		return fmt.Errorf("overlay: surface setup: %w", err)
	}
	c.renderer.Setup(c.surface, true)

	c.drawMu.Lock()
	c.initialized = true
	c.drawMu.Unlock()

	c.log.Debug("overlay: surface recreated", "handle", h)
	return nil
}

// Close stops the render loop, waits for it to exit, fires Destroy and
// releases the surface. Close is idempotent. Called from inside a
// notification on the render goroutine it returns ErrSelfJoin.
func (c *Canvas) Close() error {
	if c.loop.OnLoopThread() {
		return ErrSelfJoin
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.loop.Shutdown()
	c.mu.Unlock()

	// The render goroutine may be waiting for the object lock in tick; it
	// observes closed and leaves.
	if err := c.loop.Join(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.drawMu.Lock()
	was := c.initialized
	c.initialized = false
	c.drawMu.Unlock()

	if !was {
		return nil
	}
	c.renderer.Destroy(c.surface)
	if err := c.surface.Release(); err != nil {
		return fmt.Errorf("overlay: surface release: %w", err)
	}
	return nil
}

// tick is the render loop step.
func (c *Canvas) tick() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if _, err := c.initializeLocked(); err != nil {
		c.err = err
		c.mu.Unlock()
		c.log.Error("overlay: render loop stopped", "err", err)
		_ = c.loop.SetFPS(0)
		return
	}
	c.mu.Unlock()

	if err := c.SafeDraw(); err != nil {
		c.log.Debug("overlay: frame skipped", "err", err)
	}
}
