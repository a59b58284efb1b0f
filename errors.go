package overlay

import "errors"

// Common errors returned by overlay operations.
var (
	// ErrInvalidHandle is returned when an operation needs a live window but
	// the handle is InvalidHandle or the window was destroyed.
	ErrInvalidHandle = errors.New("overlay: invalid window handle")

	// ErrWrongThread is returned when the message loop is started on a thread
	// other than the one that created the window.
	ErrWrongThread = errors.New("overlay: message loop must run on the thread that created the window")

	// ErrSelfJoin is returned when the render goroutine tries to wait for
	// itself to exit.
	ErrSelfJoin = errors.New("overlay: cannot join the render loop from inside itself")

	// ErrClosed is returned by operations on a closed canvas or render loop.
	ErrClosed = errors.New("overlay: closed")

	// ErrNotInitialized is returned when drawing before the surface is set up.
	ErrNotInitialized = errors.New("overlay: surface not initialized")

	// ErrNotAWindow is returned when an attachment target is not a window.
	ErrNotAWindow = errors.New("overlay: target is not a window")

	// ErrUnsupported is returned by drivers for operations their platform
	// cannot perform.
	ErrUnsupported = errors.New("overlay: operation not supported by driver")
)
