package glfwhost

import (
	"errors"
	"runtime"
	"testing"

	"github.com/go-theft-auto/overlay"
	"github.com/go-theft-auto/overlay/internal/osthread"
)

// newUninitialized returns a driver that owns the calling thread without
// initializing GLFW, for paths that never reach a native window.
func newUninitialized() *Driver {
	return &Driver{
		main:    osthread.ID(),
		log:     overlay.Logger(),
		classes: make(map[string]overlay.WindowClass),
		windows: make(map[overlay.Handle]*window),
	}
}

func TestDestroy(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	d := newUninitialized()

	if err := d.Destroy(0x100); !errors.Is(err, overlay.ErrInvalidHandle) {
		t.Errorf("Destroy(unknown) = %v, want ErrInvalidHandle", err)
	}

	errc := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		errc <- d.Destroy(0x100)
	}()
	if err := <-errc; !errors.Is(err, overlay.ErrWrongThread) {
		t.Errorf("Destroy off the main thread = %v, want ErrWrongThread", err)
	}
}
