// Example shows a click-through HUD overlay drawn with OpenGL.
//
// Prerequisites:
//
//	Install devbox: https://www.jetify.com/devbox
//	devbox shell              # enter the dev environment (provides Go + OpenGL/X11 headers)
//	go run ./example/         # run this example
//
// The example creates an overlay window through the GLFW host, binds an
// OpenGL surface to it and renders a crosshair and a moving marker at the
// requested frame rate until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"math"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/go-theft-auto/overlay"
	"github.com/go-theft-auto/overlay/backend/glfwhost"
	"github.com/go-theft-auto/overlay/backend/opengl"
)

const (
	windowWidth  = 800
	windowHeight = 600
)

var (
	accent = color.NRGBA{R: 0x4c, G: 0xd9, B: 0x64, A: 0xff}
	shade  = color.NRGBA{A: 0x60}
)

func init() {
	// GLFW must run on the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	fps := flag.Uint("fps", 60, "target frame rate")
	verbose := flag.Bool("v", false, "log render loop lifecycle")
	flag.Parse()
	overlay.SetVerbose(*verbose)

	if err := overlay.EnableHighResolutionTimer(); err != nil {
		overlay.Logger().Warn("high resolution timer unavailable", "err", err)
	}

	driver, err := glfwhost.New()
	if err != nil {
		return err
	}
	defer driver.Terminate()

	surface := opengl.NewSurface(driver)
	w, err := overlay.NewWindow(driver, surface, overlay.RendererFuncs{OnDraw: drawHUD},
		overlay.WithTitle("overlay example"),
		overlay.WithBounds(overlay.RectFromSize(100, 100, windowWidth, windowHeight)),
		overlay.WithFPS(uint32(*fps)),
	)
	if err != nil {
		return fmt.Errorf("overlay window: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		if err := w.Close(); err != nil {
			overlay.Logger().Error("close overlay", "err", err)
		}
	}()

	return w.MessageLoop()
}

func drawHUD(s overlay.Surface, f overlay.Frame) {
	gs := s.(*opengl.Surface)
	if err := gs.BeginFrame(); err != nil {
		overlay.Logger().Debug("begin frame", "err", err)
		return
	}

	width, height := gs.Size()
	cx, cy := width/2, height/2

	gs.FillRect(overlay.RectFromSize(cx-1, cy-12, 2, 24), accent)
	gs.FillRect(overlay.RectFromSize(cx-12, cy-1, 24, 2), accent)
	gs.StrokeRect(overlay.Rect{Right: width, Bottom: height}, 2, accent)

	// Marker orbiting the crosshair once every four seconds.
	phase := 2 * math.Pi * f.Time.Seconds() / (4 * time.Second).Seconds()
	r := float64(min(width, height)) / 4
	mx := cx + int(r*math.Cos(phase))
	my := cy + int(r*math.Sin(phase))
	gs.DrawLine(overlay.Point{X: cx, Y: cy}, overlay.Point{X: mx, Y: my}, 1.5, shade)
	gs.FillRect(overlay.RectFromSize(mx-6, my-6, 12, 12), accent)

	if err := gs.EndFrame(); err != nil {
		overlay.Logger().Debug("end frame", "err", err)
	}
}
