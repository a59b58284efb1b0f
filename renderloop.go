package overlay

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-theft-auto/overlay/internal/osthread"
)

// defaultResumeFPS is the rate SetRunning(true) uses when no rate was ever set.
const defaultResumeFPS = 60

// RenderLoop repeatedly calls a step function at a target rate on a
// dedicated goroutine locked to its own OS thread.
//
// Setting a non-zero rate starts the goroutine if none is alive; setting
// the rate to zero makes it exit at the top of its next iteration. At most
// one goroutine is alive per RenderLoop at any time.
type RenderLoop struct {
	step  func()
	clock Clock
	sleep func(time.Duration)
	log   *slog.Logger

	mu       sync.Mutex // guards lastFPS, done, shutdown and writes to fps
	fps      atomic.Uint32
	lastFPS  uint32
	done     chan struct{} // closed when the current goroutine exits; nil when idle
	shutdown bool

	thread atomic.Uint64 // OS thread of the live goroutine, 0 when idle
	alive  atomic.Int32
}

// NewRenderLoop creates an idle loop around step. WithClock, WithSleeper,
// WithLogger and WithFPS apply.
func NewRenderLoop(step func(), opts ...Option) *RenderLoop {
	cfg := newConfig(opts)
	l := newRenderLoop(step, cfg)
	if cfg.fps != 0 {
		_ = l.SetFPS(cfg.fps)
	}
	return l
}

func newRenderLoop(step func(), cfg config) *RenderLoop {
	return &RenderLoop{step: step, clock: cfg.clock, sleep: cfg.sleep, log: cfg.logger}
}

// FPS returns the target frame rate; 0 means stopped.
func (l *RenderLoop) FPS() uint32 {
	return l.fps.Load()
}

// SetFPS changes the target frame rate. A non-zero rate starts the render
// goroutine if none is alive. It returns ErrClosed after Shutdown.
func (l *RenderLoop) SetFPS(fps uint32) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.shutdown {
		return ErrClosed
	}
	l.setFPSLocked(fps)
	return nil
}

func (l *RenderLoop) setFPSLocked(fps uint32) {
	l.fps.Store(fps)
	if fps == 0 {
		return
	}
	l.lastFPS = fps
	if l.done == nil {
		l.done = make(chan struct{})
		go l.run(l.done)
	}
}

// Running reports whether a non-zero rate is set.
func (l *RenderLoop) Running() bool {
	return l.fps.Load() != 0
}

// SetRunning stops the loop, or resumes it at the last non-zero rate
// (60 if none was ever set).
func (l *RenderLoop) SetRunning(run bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.shutdown {
		return ErrClosed
	}
	if !run {
		l.setFPSLocked(0)
		return nil
	}
	fps := l.lastFPS
	if fps == 0 {
		fps = defaultResumeFPS
	}
	l.setFPSLocked(fps)
	return nil
}

// Shutdown forces the rate to zero and rejects later rate changes. It does
// not wait; call Join for that.
func (l *RenderLoop) Shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.shutdown = true
	l.fps.Store(0)
}

// Join blocks until the render goroutine has exited. It returns ErrSelfJoin
// when called from the render goroutine itself.
func (l *RenderLoop) Join() error {
	if l.OnLoopThread() {
		return ErrSelfJoin
	}
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()

	if done != nil {
		<-done
	}
	return nil
}

// OnLoopThread reports whether the caller is the render goroutine.
func (l *RenderLoop) OnLoopThread() bool {
	id := osthread.ID()
	return id != 0 && id == l.thread.Load()
}

func (l *RenderLoop) run(done chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l.thread.Store(osthread.ID())
	l.alive.Add(1)
	l.log.Debug("overlay: render loop started", "fps", l.fps.Load())

	for {
		if l.exitIfStopped(done) {
			return
		}

		start := l.clock.Now()
		l.step()

		fps := l.fps.Load()
		if fps == 0 {
			continue
		}
		remaining := time.Second/time.Duration(fps) - (l.clock.Now() - start)
		if remaining > 0 {
			l.sleep(remaining)
		}
	}
}

// exitIfStopped retires the goroutine when the rate is zero. The decision is
// made under mu so that SetFPS either sees a live goroutine that will keep
// running or no goroutine at all.
func (l *RenderLoop) exitIfStopped(done chan struct{}) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fps.Load() != 0 {
		return false
	}
	l.done = nil
	l.thread.Store(0)
	l.alive.Add(-1)
	close(done)
	l.log.Debug("overlay: render loop stopped")
	return true
}
