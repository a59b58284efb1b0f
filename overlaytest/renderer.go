package overlaytest

import (
	"fmt"
	"slices"
	"sync"

	"github.com/go-theft-auto/overlay"
)

// Renderer is an overlay.Renderer that records its notifications and
// flags those arriving in an impossible order, such as a draw after
// destroy or a destroy while a draw is running.
type Renderer struct {
	// Log receives "setup", "setup recreate", "draw" and "destroy" events
	// when set.
	Log *Recorder

	// OnDraw, when set, runs inside every Draw notification.
	OnDraw func(f overlay.Frame)

	mu         sync.Mutex
	live       bool
	drawing    bool
	setups     []bool
	frames     []overlay.Frame
	destroys   int
	violations []string
}

var _ overlay.Renderer = (*Renderer)(nil)

func (r *Renderer) violate(format string, args ...any) {
	r.violations = append(r.violations, fmt.Sprintf(format, args...))
}

// Setup implements overlay.Renderer.
func (r *Renderer) Setup(s overlay.Surface, recreate bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.live {
		r.violate("setup while already set up")
	}
	r.live = true
	r.setups = append(r.setups, recreate)
	if recreate {
		r.Log.Add("setup recreate")
	} else {
		r.Log.Add("setup")
	}
}

// Draw implements overlay.Renderer.
func (r *Renderer) Draw(s overlay.Surface, f overlay.Frame) {
	r.mu.Lock()
	if !r.live {
		r.violate("draw of frame %d without setup", f.Count)
	}
	if r.drawing {
		r.violate("concurrent draw of frame %d", f.Count)
	}
	r.drawing = true
	r.frames = append(r.frames, f)
	r.Log.Add("draw")
	onDraw := r.OnDraw
	r.mu.Unlock()

	if onDraw != nil {
		onDraw(f)
	}

	r.mu.Lock()
	r.drawing = false
	r.mu.Unlock()
}

// Destroy implements overlay.Renderer.
func (r *Renderer) Destroy(s overlay.Surface) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.live {
		r.violate("destroy without setup")
	}
	if r.drawing {
		r.violate("destroy during draw")
	}
	r.live = false
	r.destroys++
	r.Log.Add("destroy")
}

// Setups returns the recreate flag of every Setup notification.
func (r *Renderer) Setups() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.setups)
}

// Frames returns every frame passed to Draw.
func (r *Renderer) Frames() []overlay.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.frames)
}

// Draws returns the number of Draw notifications.
func (r *Renderer) Draws() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Destroys returns the number of Destroy notifications.
func (r *Renderer) Destroys() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroys
}

// Violations returns the ordering errors seen so far.
func (r *Renderer) Violations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.violations)
}
