/*
Package overlay provides borderless, click-through, always-on-top windows
that are redrawn at a fixed frame rate and can follow another window on
screen.

# Overview

An overlay is made of three parts:

  - Window owns the native window. It is created with the overlay styles
    (popup, layered, transparent to input, topmost, never activated) and a
    random class name and title, and runs the message loop of its thread.
  - Canvas binds a drawing Surface to the window. It tells a Renderer when
    to set up, draw and destroy, and resizes the surface when the window
    changes size.
  - RenderLoop calls the canvas at the target frame rate on its own
    goroutine. Setting the rate to zero stops the goroutine; a non-zero rate
    starts it again.

StickyWindow adds an Attachment that keeps the overlay on top of a target
window: before every frame, at most every StickInterval, the overlay is
moved to the target's bounds (or its client area) and optionally placed
right above it in the z-order.

Platform specifics sit behind the Driver interface. backend/win32 talks to
user32 and the desktop window manager, backend/glfwhost runs on GLFW for
development on other systems, and backend/opengl implements Surface. The
overlaytest package provides in-memory fakes for tests.

# Quick Start

	// The message loop must run on the thread that created the window.
	runtime.LockOSThread()

	driver, _ := glfwhost.New()
	defer driver.Terminate()

	surface := opengl.NewSurface(driver)
	w, _ := overlay.NewWindow(driver, surface, overlay.RendererFuncs{
	    OnDraw: func(s overlay.Surface, f overlay.Frame) {
	        surface.BeginFrame()
	        surface.FillRect(overlay.RectFromSize(10, 10, 40, 40), color.White)
	        surface.EndFrame()
	    },
	}, overlay.WithFPS(60))

	w.MessageLoop() // returns after Close or when the window is destroyed

# Following a Window

	target, _ := win32.FindWindow("", "Notepad")
	sw, _ := overlay.NewStickyWindow(driver, target, surface, renderer,
	    overlay.WithFPS(60))
	sw.SetAttachToClientArea(true)
	sw.SetBypassTopmost(true)

Geometry is only checked on frames, so an attached overlay must render to
follow its target.

# Threading

Renderer notifications run on the render goroutine. Draw runs with the draw
lock held (see Canvas.DrawLock), so other goroutines can take that lock to
update shared drawing state between frames. Setup and Destroy run with the
canvas object lock held.

Close and Join called from inside a notification would wait for the
current goroutine; they return ErrSelfJoin instead.

# Logging

Lifecycle events are logged with log/slog. SetLogger replaces the package
logger, WithLogger sets one per window, and SetVerbose turns on debug
output of the default logger.
*/
package overlay
