// Command gen renders sample overlay scenes off-screen, captures the
// framebuffer and saves JPEG screenshots to doc/imgs/.
//
// Usage:
//
//	devbox shell
//	go run ./doc/gen/
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-theft-auto/overlay"
	"github.com/go-theft-auto/overlay/backend/glfwhost"
	"github.com/go-theft-auto/overlay/backend/opengl"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// screenshot defines a single scene to capture.
type screenshot struct {
	name   string                  // filename without extension
	width  int                     // surface width
	height int                     // surface height
	draw   func(s *opengl.Surface) // scene drawing function
}

// backdrop stands in for the desktop behind the overlay, since a
// transparent framebuffer would save as black.
var backdrop = color.NRGBA{R: 0x1f, G: 0x1f, B: 0x24, A: 0xff}

func run() error {
	driver, err := glfwhost.New()
	if err != nil {
		return err
	}
	defer driver.Terminate()

	class := overlay.RandomClassName()
	err = driver.RegisterClass(overlay.WindowClass{Name: class, Proc: driver.DefaultProc})
	if err != nil {
		return fmt.Errorf("register class: %w", err)
	}
	defer driver.UnregisterClass(class)

	outDir := filepath.Join("doc", "imgs")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	shots := buildScreenshots()
	for _, s := range shots {
		if err := capture(driver, class, s, outDir); err != nil {
			return fmt.Errorf("capture %s: %w", s.name, err)
		}
		fmt.Printf("  %s.jpg (%dx%d)\n", s.name, s.width, s.height)
	}

	fmt.Printf("\nGenerated %d screenshots in %s/\n", len(shots), outDir)
	return nil
}

// capture draws one frame of s into a hidden window through a Canvas and
// saves what ended up in the framebuffer.
func capture(driver *glfwhost.Driver, class string, s screenshot, outDir string) error {
	h, err := driver.CreateWindow(overlay.WindowSpec{
		Class:  class,
		Title:  overlay.RandomTitle(),
		Bounds: overlay.RectFromSize(0, 0, s.width, s.height),
		Style:  overlay.StylePopup,
	})
	if err != nil {
		return err
	}
	defer driver.Destroy(h)

	surface := opengl.NewSurface(driver)
	surface.SetClearColor(backdrop)

	var (
		img     *image.RGBA
		drawErr error
	)
	canvas := overlay.NewCanvas(driver, h, surface, overlay.RendererFuncs{
		OnDraw: func(overlay.Surface, overlay.Frame) {
			if drawErr = surface.BeginFrame(); drawErr != nil {
				return
			}
			s.draw(surface)
			img, drawErr = surface.Capture()
			if err := surface.EndFrame(); drawErr == nil {
				drawErr = err
			}
		},
	})
	defer canvas.Close()

	if _, err := canvas.Initialize(); err != nil {
		return err
	}
	if err := canvas.SafeDraw(); err != nil {
		return err
	}
	if drawErr != nil {
		return drawErr
	}

	path := filepath.Join(outDir, s.name+".jpg")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
}

var (
	green  = color.NRGBA{R: 0x4c, G: 0xd9, B: 0x64, A: 0xff}
	red    = color.NRGBA{R: 0xe8, G: 0x4a, B: 0x3c, A: 0xff}
	yellow = color.NRGBA{R: 0xf5, G: 0xc5, B: 0x18, A: 0xff}
	glass  = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x30}
)

func buildScreenshots() []screenshot {
	return []screenshot{
		{
			name: "crosshair", width: 200, height: 200,
			draw: func(s *opengl.Surface) {
				s.FillRect(overlay.RectFromSize(99, 80, 2, 40), green)
				s.FillRect(overlay.RectFromSize(80, 99, 40, 2), green)
				s.StrokeRect(overlay.RectFromSize(90, 90, 20, 20), 1, green)
			},
		},
		{
			name: "frame", width: 400, height: 240,
			draw: func(s *opengl.Surface) {
				s.FillRect(overlay.RectFromSize(0, 0, 400, 240), glass)
				s.StrokeRect(overlay.RectFromSize(0, 0, 400, 240), 3, yellow)
			},
		},
		{
			name: "bars", width: 320, height: 120,
			draw: func(s *opengl.Surface) {
				for i, v := range []int{80, 55, 30} {
					y := 16 + i*34
					s.FillRect(overlay.RectFromSize(16, y, 288, 22), glass)
					s.FillRect(overlay.RectFromSize(16, y, 288*v/100, 22), []color.Color{green, yellow, red}[i])
				}
			},
		},
		{
			name: "lines", width: 300, height: 200,
			draw: func(s *opengl.Surface) {
				pts := []overlay.Point{{X: 20, Y: 180}, {X: 90, Y: 60}, {X: 160, Y: 120}, {X: 280, Y: 20}}
				for i := 1; i < len(pts); i++ {
					s.DrawLine(pts[i-1], pts[i], 3, green)
				}
				for _, p := range pts {
					s.FillRect(overlay.RectFromSize(p.X-4, p.Y-4, 8, 8), red)
				}
			},
		},
	}
}
