package overlaytest

import (
	"fmt"
	"slices"
	"sync"

	"github.com/go-theft-auto/overlay"
)

// Recorder collects events from Surface and Renderer in the order they
// happen so tests can check the relative order of the two.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

// Add appends an event.
func (r *Recorder) Add(event string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Surface is an overlay.Surface that only tracks its size and counts calls.
type Surface struct {
	// Log receives "surface.setup", "surface.resize WxH" and
	// "surface.release" events when set.
	Log *Recorder

	mu       sync.Mutex
	handle   overlay.Handle
	width    int
	height   int
	ready    bool
	setupE   error
	resizeE  error
	setups   int
	releases int
	resizes  [][2]int
}

var _ overlay.Surface = (*Surface)(nil)

// FailSetup makes Setup return err. Pass nil to clear.
func (s *Surface) FailSetup(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setupE = err
}

// FailResize makes Resize return err. Pass nil to clear.
func (s *Surface) FailResize(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resizeE = err
}

// Setup implements overlay.Surface.
func (s *Surface) Setup(h overlay.Handle, width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.setupE != nil {
		return s.setupE
	}
	if s.ready {
		return fmt.Errorf("overlaytest: surface set up twice without release")
	}
	s.handle, s.width, s.height, s.ready = h, width, height, true
	s.setups++
	s.Log.Add("surface.setup")
	return nil
}

// Resize implements overlay.Surface.
func (s *Surface) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resizeE != nil {
		return s.resizeE
	}
	if !s.ready {
		return fmt.Errorf("overlaytest: resize of released surface")
	}
	s.width, s.height = width, height
	s.resizes = append(s.resizes, [2]int{width, height})
	s.Log.Add(fmt.Sprintf("surface.resize %dx%d", width, height))
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
		return fmt.Errorf("overlaytest: surface released twice")
	}
	s.ready = false
	s.releases++
	s.Log.Add("surface.release")
	return nil
}

// Handle returns the window the surface was last set up for.
func (s *Surface) Handle() overlay.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// Ready reports whether the surface is set up and not yet released.
func (s *Surface) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Setups returns the number of successful Setup calls.
func (s *Surface) Setups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setups
}

// Releases returns the number of Release calls.
func (s *Surface) Releases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases
}

// Resizes returns the sizes passed to Resize, in order.
func (s *Surface) Resizes() [][2]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.resizes)
}
