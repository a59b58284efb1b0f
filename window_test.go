package overlay_test

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-theft-auto/overlay"
	"github.com/go-theft-auto/overlay/overlaytest"
)

const ownerThread = 1

type windowFixture struct {
	driver   *overlaytest.Driver
	surface  *overlaytest.Surface
	renderer *overlaytest.Renderer
	window   *overlay.Window
}

func newWindowFixture(t *testing.T, opts ...overlay.Option) *windowFixture {
	t.Helper()
	f := &windowFixture{
		driver:   overlaytest.NewDriver(),
		surface:  &overlaytest.Surface{},
		renderer: &overlaytest.Renderer{},
	}
	f.driver.Thread = func() uint64 { return ownerThread }

	w, err := overlay.NewWindow(f.driver, f.surface, f.renderer, append([]overlay.Option{quiet()}, opts...)...)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	f.window = w
	t.Cleanup(func() { _ = w.Close() })
	return f
}

func TestNewWindowCreatesOverlay(t *testing.T) {
	f := newWindowFixture(t, overlay.WithBounds(overlay.RectFromSize(5, 6, 320, 240)))
	w := f.window

	if !w.Handle().Valid() || !f.driver.IsWindow(w.Handle()) {
		t.Fatalf("window handle %v is not a window", w.Handle())
	}
	if s, err := w.Style(); err != nil || s != overlay.OverlayStyle {
		t.Errorf("Style = %#x, %v; want %#x", s, err, overlay.OverlayStyle)
	}
	if s, err := w.ExStyle(); err != nil || s != overlay.OverlayExStyle {
		t.Errorf("ExStyle = %#x, %v; want %#x", s, err, overlay.OverlayExStyle)
	}
	if top, err := w.Topmost(); err != nil || !top {
		t.Errorf("Topmost = %v, %v; want true", top, err)
	}
	if !w.Visible() {
		t.Error("window not visible")
	}
	if r, err := w.Bounds(); err != nil || r != overlay.RectFromSize(5, 6, 320, 240) {
		t.Errorf("Bounds = %v, %v", r, err)
	}
	if n := f.driver.Calls("ExtendFrameIntoClientArea"); n != 1 {
		t.Errorf("frame extended %d times, want 1", n)
	}
	if n := f.driver.Calls("EnableBlurBehind"); n != 0 {
		t.Errorf("blur enabled without WithBlurBehind")
	}
	if w.Running() {
		t.Error("rendering started without WithFPS")
	}

	title, err := w.Title()
	if err != nil {
		t.Fatal(err)
	}
	if len(title) < 8 || len(title) > 15 || strings.ToLower(title) != title {
		t.Errorf("random title %q", title)
	}
	if !strings.Contains(w.String(), w.ClassName()) {
		t.Errorf("String() = %q does not name class %q", w.String(), w.ClassName())
	}
}

func TestNewWindowOptions(t *testing.T) {
	f := newWindowFixture(t,
		overlay.WithTitle("hud"),
		overlay.WithClassName("hudclass"),
		overlay.WithBlurBehind(),
		overlay.WithFPS(100),
	)
	w := f.window

	if title, _ := w.Title(); title != "hud" {
		t.Errorf("Title = %q, want hud", title)
	}
	if w.ClassName() != "hudclass" {
		t.Errorf("ClassName = %q", w.ClassName())
	}
	if n := f.driver.Calls("EnableBlurBehind"); n != 1 {
		t.Errorf("blur enabled %d times, want 1", n)
	}
	if !waitFor(5*time.Second, func() bool { return f.renderer.Draws() > 0 }) {
		t.Error("WithFPS did not start rendering")
	}
}

func TestNewWindowUsesFreshClassNames(t *testing.T) {
	a := newWindowFixture(t)
	b := newWindowFixture(t)

	if a.window.ClassName() == b.window.ClassName() {
		t.Errorf("two windows share class %q", a.window.ClassName())
	}
}

func TestNewWindowRegisterFailure(t *testing.T) {
	d := overlaytest.NewDriver()
	boom := errors.New("class atom table full")
	d.FailRegister(boom)

	_, err := overlay.NewWindow(d, &overlaytest.Surface{}, nil, quiet())
	if !errors.Is(err, boom) {
		t.Fatalf("NewWindow = %v, want %v", err, boom)
	}
	if n := d.Calls("CreateWindow"); n != 0 {
		t.Errorf("CreateWindow called %d times after failed registration", n)
	}
}

func TestNewWindowCreateFailureUnregistersClass(t *testing.T) {
	d := overlaytest.NewDriver()
	boom := errors.New("out of handles")
	d.FailCreate(boom)

	_, err := overlay.NewWindow(d, &overlaytest.Surface{}, nil, quiet())
	if !errors.Is(err, boom) {
		t.Fatalf("NewWindow = %v, want %v", err, boom)
	}
	if classes := d.Classes(); len(classes) != 0 {
		t.Errorf("classes left registered: %v", classes)
	}
}

func TestWindowProc(t *testing.T) {
	tests := []struct {
		kind        overlay.MessageKind
		defaultProc int
		paint       int
		extend      int
		quit        int
	}{
		{kind: overlay.MsgOther, defaultProc: 1},
		{kind: overlay.MsgEraseBackground, defaultProc: 1, paint: 1},
		{kind: overlay.MsgPaint},
		{kind: overlay.MsgNCPaint},
		{kind: overlay.MsgSysCommand},
		{kind: overlay.MsgSysKeyDown},
		{kind: overlay.MsgSysKeyUp},
		{kind: overlay.MsgIMEKey},
		{kind: overlay.MsgDPIChanged},
		{kind: overlay.MsgCompositionChanged, extend: 1},
		{kind: overlay.MsgDestroy, defaultProc: 1, quit: 1},
		{kind: overlay.MsgNCDestroy, defaultProc: 1, quit: 1},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			var seen []overlay.MessageKind
			f := newWindowFixture(t, overlay.WithMessageHook(func(m overlay.Message) {
				seen = append(seen, m.Kind)
			}))
			d := f.driver
			extendBefore := d.Calls("ExtendFrameIntoClientArea")

			ret := d.Send(overlay.Message{Window: f.window.Handle(), Kind: tt.kind})

			if ret != 0 {
				t.Errorf("result = %d, want 0", ret)
			}
			if got := d.Calls("DefaultProc"); got != tt.defaultProc {
				t.Errorf("DefaultProc calls = %d, want %d", got, tt.defaultProc)
			}
			if got := d.Calls("SendPaint"); got != tt.paint {
				t.Errorf("SendPaint calls = %d, want %d", got, tt.paint)
			}
			if got := d.Calls("ExtendFrameIntoClientArea") - extendBefore; got != tt.extend {
				t.Errorf("frame extended %d times, want %d", got, tt.extend)
			}
			if got := d.Calls("PostQuit"); got != tt.quit {
				t.Errorf("PostQuit calls = %d, want %d", got, tt.quit)
			}
			if len(seen) == 0 || seen[0] != tt.kind {
				t.Errorf("message hook saw %v", seen)
			}
		})
	}
}

func TestMessageLoopWrongThread(t *testing.T) {
	f := newWindowFixture(t)
	f.driver.Thread = func() uint64 { return ownerThread + 1 }

	if err := f.window.MessageLoop(); !errors.Is(err, overlay.ErrWrongThread) {
		t.Fatalf("MessageLoop = %v, want ErrWrongThread", err)
	}
	if n := f.driver.Calls("WaitMessage"); n != 0 {
		t.Errorf("pump ran on the wrong thread")
	}
	if !f.driver.IsWindow(f.window.Handle()) {
		t.Error("window destroyed by a rejected MessageLoop")
	}
}

func TestMessageLoopAfterClose(t *testing.T) {
	f := newWindowFixture(t)
	if err := f.window.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.window.MessageLoop(); !errors.Is(err, overlay.ErrInvalidHandle) {
		t.Fatalf("MessageLoop = %v, want ErrInvalidHandle", err)
	}
}

func TestDestroyEndsMessageLoopAndClosesOnce(t *testing.T) {
	f := newWindowFixture(t, overlay.WithFPS(200))
	w := f.window
	h := w.Handle()
	class := w.ClassName()

	loopDone := make(chan error, 1)
	go func() { loopDone <- w.MessageLoop() }()

	if !waitFor(5*time.Second, func() bool { return f.renderer.Draws() > 0 }) {
		t.Fatal("no frames drawn")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = f.driver.RequestDestroy(h)
	}()
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Close(); err != nil {
				t.Errorf("Close: %v", err)
			}
		}()
	}
	wg.Wait()

	select {
	case err := <-loopDone:
		if err != nil {
			t.Fatalf("MessageLoop: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("MessageLoop did not return after destroy")
	}

	if n := f.renderer.Destroys(); n != 1 {
		t.Errorf("Destroy fired %d times, want 1", n)
	}
	if n := f.surface.Releases(); n != 1 {
		t.Errorf("surface released %d times, want 1", n)
	}
	if v := f.renderer.Violations(); len(v) != 0 {
		t.Errorf("violations: %v", v)
	}
	if w.Handle().Valid() {
		t.Errorf("handle = %v after close, want InvalidHandle", w.Handle())
	}
	if f.driver.IsWindow(h) {
		t.Error("native window still exists")
	}
	for _, c := range f.driver.Classes() {
		if c == class {
			t.Errorf("class %q still registered", class)
		}
	}
}

func TestMessageLoopNextWindowAfterDestroy(t *testing.T) {
	f := newWindowFixture(t)
	first := f.window

	firstDone := make(chan error, 1)
	go func() { firstDone <- first.MessageLoop() }()
	if err := f.driver.RequestDestroy(first.Handle()); err != nil {
		t.Fatalf("RequestDestroy: %v", err)
	}
	select {
	case err := <-firstDone:
		if err != nil {
			t.Fatalf("first MessageLoop: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("first MessageLoop did not return")
	}

	renderer := &overlaytest.Renderer{}
	second, err := overlay.NewWindow(f.driver, &overlaytest.Surface{}, renderer, quiet(), overlay.WithFPS(200))
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })

	secondDone := make(chan error, 1)
	go func() { secondDone <- second.MessageLoop() }()

	select {
	case err := <-secondDone:
		t.Fatalf("second MessageLoop returned early: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	if !f.driver.IsWindow(second.Handle()) {
		t.Fatal("second window destroyed by a quit left over from the first")
	}
	if !waitFor(5*time.Second, func() bool { return renderer.Draws() > 0 }) {
		t.Fatal("second window drew no frames")
	}

	if err := second.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case err := <-secondDone:
		if err != nil {
			t.Fatalf("second MessageLoop: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second MessageLoop did not return after Close")
	}
}

func TestWindowAccessors(t *testing.T) {
	f := newWindowFixture(t)
	w := f.window

	if err := w.SetTitle("radar"); err != nil {
		t.Fatal(err)
	}
	if title, _ := w.Title(); title != "radar" {
		t.Errorf("Title = %q", title)
	}

	if err := w.SetVisible(false); err != nil {
		t.Fatal(err)
	}
	if w.Visible() {
		t.Error("still visible")
	}

	if err := w.SetTopmost(false); err != nil {
		t.Fatal(err)
	}
	if top, _ := w.Topmost(); top {
		t.Error("still topmost")
	}
	if err := w.SetTopmost(true); err != nil {
		t.Fatal(err)
	}
	if top, _ := w.Topmost(); !top {
		t.Error("not topmost")
	}

	extend := f.driver.Calls("ExtendFrameIntoClientArea")
	r := overlay.RectFromSize(50, 60, 200, 100)
	if err := w.SetBounds(r); err != nil {
		t.Fatal(err)
	}
	if got, _ := w.Bounds(); got != r {
		t.Errorf("Bounds = %v, want %v", got, r)
	}
	if n := f.driver.Calls("ExtendFrameIntoClientArea") - extend; n != 1 {
		t.Errorf("SetBounds extended the frame %d times, want 1", n)
	}

	if err := w.SetStyle(overlay.StylePopup); err != nil {
		t.Fatal(err)
	}
	if s, _ := w.Style(); s != overlay.StylePopup {
		t.Errorf("Style = %#x", s)
	}
	if err := w.SetExStyle(overlay.OverlayExStyle | overlay.ExToolWindow); err != nil {
		t.Fatal(err)
	}
	if s, _ := w.ExStyle(); s&overlay.ExToolWindow == 0 {
		t.Errorf("ExStyle = %#x", s)
	}
}

func TestWindowAccessorsNeedLiveWindow(t *testing.T) {
	f := newWindowFixture(t)
	w := f.window
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	checks := map[string]error{
		"SetTitle":   w.SetTitle("x"),
		"SetVisible": w.SetVisible(true),
		"SetTopmost": w.SetTopmost(true),
		"SetBounds":  w.SetBounds(overlay.RectFromSize(0, 0, 1, 1)),
		"SetStyle":   w.SetStyle(0),
		"SetExStyle": w.SetExStyle(0),
	}
	_, checks["Title"] = w.Title()
	_, checks["Bounds"] = w.Bounds()
	_, checks["Style"] = w.Style()
	_, checks["Topmost"] = w.Topmost()

	for name, err := range checks {
		if !errors.Is(err, overlay.ErrInvalidHandle) {
			t.Errorf("%s after Close = %v, want ErrInvalidHandle", name, err)
		}
	}
	if w.Visible() {
		t.Error("closed window reports visible")
	}
	if n := f.driver.Calls("RequestDestroy"); n != 1 {
		t.Errorf("RequestDestroy called %d times, want 1", n)
	}
}

func TestWindowPlaceAbove(t *testing.T) {
	f := newWindowFixture(t)
	d := f.driver
	w := f.window

	target := d.AddWindow(overlay.RectFromSize(0, 0, 100, 100))
	other := d.AddWindow(overlay.RectFromSize(0, 0, 100, 100))
	if err := d.InsertAfter(w.Handle(), overlay.InvalidHandle); err != nil {
		t.Fatal(err)
	}
	// z-order, top first: w, other, target

	if err := w.PlaceAbove(target); err != nil {
		t.Fatal(err)
	}
	want := []overlay.Handle{other, w.Handle(), target}
	if got := d.ZOrder(); !slices.Equal(got, want) {
		t.Errorf("z-order = %v, want %v", got, want)
	}

	calls := d.Calls("InsertAfter")
	if err := w.PlaceAbove(target); err != nil {
		t.Fatal(err)
	}
	if d.Calls("InsertAfter") != calls {
		t.Error("window reinserted although already above target")
	}
}
