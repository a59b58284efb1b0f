package overlay_test

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/go-theft-auto/overlay"
	"github.com/go-theft-auto/overlay/overlaytest"
)

type canvasFixture struct {
	driver   *overlaytest.Driver
	handle   overlay.Handle
	surface  *overlaytest.Surface
	renderer *overlaytest.Renderer
	log      *overlaytest.Recorder
	canvas   *overlay.Canvas
}

func newCanvasFixture(t *testing.T, opts ...overlay.Option) *canvasFixture {
	t.Helper()
	f := &canvasFixture{
		driver: overlaytest.NewDriver(),
		log:    &overlaytest.Recorder{},
	}
	f.handle = f.driver.AddWindow(overlay.RectFromSize(10, 20, 640, 480))
	f.surface = &overlaytest.Surface{Log: f.log}
	f.renderer = &overlaytest.Renderer{Log: f.log}
	f.canvas = overlay.NewCanvas(f.driver, f.handle, f.surface, f.renderer, append([]overlay.Option{quiet()}, opts...)...)
	t.Cleanup(func() { _ = f.canvas.Close() })
	return f
}

func TestCanvasInitializeIsIdempotent(t *testing.T) {
	f := newCanvasFixture(t)

	ran, err := f.canvas.Initialize()
	if err != nil || !ran {
		t.Fatalf("first Initialize = %v, %v; want true, nil", ran, err)
	}
	ran, err = f.canvas.Initialize()
	if err != nil || ran {
		t.Fatalf("second Initialize = %v, %v; want false, nil", ran, err)
	}

	if n := f.surface.Setups(); n != 1 {
		t.Errorf("surface set up %d times, want 1", n)
	}
	if got := f.renderer.Setups(); !slices.Equal(got, []bool{false}) {
		t.Errorf("Setup notifications = %v, want [false]", got)
	}
	if w, h := f.surface.Size(); w != 640 || h != 480 {
		t.Errorf("surface size = %dx%d, want 640x480", w, h)
	}
	if got := f.surface.Handle(); got != f.handle {
		t.Errorf("surface bound to %v, want %v", got, f.handle)
	}
}

func TestCanvasSafeDrawBeforeInitialize(t *testing.T) {
	f := newCanvasFixture(t)

	if err := f.canvas.SafeDraw(); !errors.Is(err, overlay.ErrNotInitialized) {
		t.Errorf("SafeDraw = %v, want ErrNotInitialized", err)
	}
	if n := f.renderer.Draws(); n != 0 {
		t.Errorf("%d draws before setup", n)
	}
}

func TestCanvasResizesOnceWhenWindowChanges(t *testing.T) {
	f := newCanvasFixture(t)
	if _, err := f.canvas.Initialize(); err != nil {
		t.Fatal(err)
	}

	if err := f.canvas.SafeDraw(); err != nil {
		t.Fatal(err)
	}
	if err := f.driver.MoveWindow(f.handle, overlay.RectFromSize(0, 0, 300, 200)); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if err := f.canvas.SafeDraw(); err != nil {
			t.Fatal(err)
		}
	}

	if got := f.surface.Resizes(); !slices.Equal(got, [][2]int{{300, 200}}) {
		t.Errorf("resizes = %v, want [[300 200]]", got)
	}
	want := []string{"surface.setup", "setup", "draw", "surface.resize 300x200", "draw", "draw", "draw"}
	if got := f.log.Events(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestCanvasFrameTiming(t *testing.T) {
	clock := &overlaytest.Clock{}
	f := newCanvasFixture(t, overlay.WithClock(clock))
	if _, err := f.canvas.Initialize(); err != nil {
		t.Fatal(err)
	}

	clock.Set(10 * time.Millisecond)
	if err := f.canvas.SafeDraw(); err != nil {
		t.Fatal(err)
	}
	clock.Advance(16 * time.Millisecond)
	if err := f.canvas.SafeDraw(); err != nil {
		t.Fatal(err)
	}

	want := []overlay.Frame{
		{Count: 1, Time: 10 * time.Millisecond, Delta: 10 * time.Millisecond},
		{Count: 2, Time: 26 * time.Millisecond, Delta: 16 * time.Millisecond},
	}
	if got := f.renderer.Frames(); !slices.Equal(got, want) {
		t.Errorf("frames = %+v, want %+v", got, want)
	}
}

func TestCanvasRecreate(t *testing.T) {
	f := newCanvasFixture(t)
	if _, err := f.canvas.Initialize(); err != nil {
		t.Fatal(err)
	}

	if err := f.canvas.Recreate(overlay.InvalidHandle); err != nil {
		t.Fatalf("Recreate: %v", err)
	}
	want := []string{"surface.setup", "setup", "destroy", "surface.release", "surface.setup", "setup recreate"}
	if got := f.log.Events(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if got := f.canvas.Handle(); got != f.handle {
		t.Errorf("handle changed to %v", got)
	}

	other := f.driver.AddWindow(overlay.RectFromSize(0, 0, 100, 50))
	if err := f.canvas.Recreate(other); err != nil {
		t.Fatalf("Recreate(other): %v", err)
	}
	if got := f.surface.Handle(); got != other {
		t.Errorf("surface bound to %v, want %v", got, other)
	}
	if w, h := f.surface.Size(); w != 100 || h != 50 {
		t.Errorf("surface size = %dx%d, want 100x50", w, h)
	}
	if got := f.renderer.Setups(); !slices.Equal(got, []bool{false, true, true}) {
		t.Errorf("Setup notifications = %v", got)
	}
	if v := f.renderer.Violations(); len(v) != 0 {
		t.Errorf("violations: %v", v)
	}
}

func TestCanvasCloseStopsLoopBeforeRelease(t *testing.T) {
	f := newCanvasFixture(t, overlay.WithFPS(500))

	if !waitFor(5*time.Second, func() bool { return f.renderer.Draws() >= 5 }) {
		t.Fatal("render loop did not draw")
	}
	if err := f.canvas.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := f.log.Events()
	n := len(events)
	if n < 2 || events[n-2] != "destroy" || events[n-1] != "surface.release" {
		t.Errorf("events end with %v, want [destroy surface.release]", events[max(0, n-2):])
	}
	if v := f.renderer.Violations(); len(v) != 0 {
		t.Errorf("violations: %v", v)
	}
	if f.surface.Ready() {
		t.Error("surface not released")
	}
	if f.canvas.Running() {
		t.Error("canvas still running after Close")
	}

	draws := f.renderer.Draws()
	time.Sleep(20 * time.Millisecond)
	if got := f.renderer.Draws(); got != draws {
		t.Errorf("%d draws after Close", got-draws)
	}

	if err := f.canvas.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if n := f.renderer.Destroys(); n != 1 {
		t.Errorf("Destroy fired %d times, want 1", n)
	}
	if err := f.canvas.SetFPS(30); !errors.Is(err, overlay.ErrClosed) {
		t.Errorf("SetFPS after Close = %v, want ErrClosed", err)
	}
	if _, err := f.canvas.Initialize(); !errors.Is(err, overlay.ErrClosed) {
		t.Errorf("Initialize after Close = %v, want ErrClosed", err)
	}
}

func TestCanvasCloseWithoutInitialize(t *testing.T) {
	f := newCanvasFixture(t)

	if err := f.canvas.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if n := f.renderer.Destroys(); n != 0 {
		t.Errorf("Destroy fired %d times for a surface never set up", n)
	}
	if n := f.surface.Releases(); n != 0 {
		t.Errorf("surface released %d times", n)
	}
}

func TestCanvasCloseFromDrawIsRejected(t *testing.T) {
	requireThreadIDs(t)

	f := newCanvasFixture(t)
	errs := make(chan error, 1)
	var once sync.Once
	f.renderer.OnDraw = func(overlay.Frame) {
		once.Do(func() { errs <- f.canvas.Close() })
	}
	if err := f.canvas.SetFPS(100); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errs:
		if !errors.Is(err, overlay.ErrSelfJoin) {
			t.Errorf("Close from Draw = %v, want ErrSelfJoin", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close from Draw blocked")
	}
	if err := f.canvas.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestCanvasSetupFailureStopsLoop(t *testing.T) {
	f := newCanvasFixture(t)
	boom := errors.New("device lost")
	f.surface.FailSetup(boom)

	if err := f.canvas.SetFPS(200); err != nil {
		t.Fatal(err)
	}
	if !waitFor(5*time.Second, func() bool { return !f.canvas.Running() }) {
		t.Fatal("loop kept running after setup failure")
	}
	if err := f.canvas.Join(); err != nil {
		t.Fatal(err)
	}
	if err := f.canvas.Err(); !errors.Is(err, boom) {
		t.Errorf("Err = %v, want %v", err, boom)
	}
	if n := f.renderer.Draws(); n != 0 {
		t.Errorf("%d draws without a surface", n)
	}
}

type hookFunc func(overlay.Frame)

func (h hookFunc) BeforeDraw(f overlay.Frame) { h(f) }

func TestCanvasPreDrawHookRunsBeforeDraw(t *testing.T) {
	log := &overlaytest.Recorder{}
	f := newCanvasFixture(t, overlay.WithPreDrawHook(hookFunc(func(overlay.Frame) { log.Add("hook") })))
	f.renderer.Log = log
	f.canvas.AddPreDrawHook(hookFunc(func(overlay.Frame) { log.Add("late hook") }))

	if _, err := f.canvas.Initialize(); err != nil {
		t.Fatal(err)
	}
	if err := f.canvas.SafeDraw(); err != nil {
		t.Fatal(err)
	}

	want := []string{"setup", "hook", "late hook", "draw"}
	if got := log.Events(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestCanvasDrawLockBlocksDraw(t *testing.T) {
	f := newCanvasFixture(t)
	if _, err := f.canvas.Initialize(); err != nil {
		t.Fatal(err)
	}

	lock := f.canvas.DrawLock()
	lock.Lock()
	done := make(chan error, 1)
	go func() { done <- f.canvas.SafeDraw() }()

	select {
	case <-done:
		t.Fatal("SafeDraw ran while the draw lock was held")
	case <-time.After(20 * time.Millisecond):
	}
	lock.Unlock()

	if err := <-done; err != nil {
		t.Fatalf("SafeDraw: %v", err)
	}
}
