package opengl

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/go-theft-auto/overlay"
)

func TestBatchRect(t *testing.T) {
	var b batch
	b.rect(overlay.RectFromSize(10, 20, 30, 40), color.NRGBA{R: 255, A: 128})

	if len(b.verts) != 6 {
		t.Fatalf("got %d vertices, want 6", len(b.verts))
	}
	var minX, minY, maxX, maxY float32 = math.MaxFloat32, math.MaxFloat32, 0, 0
	for _, v := range b.verts {
		minX, maxX = min(minX, v.X), max(maxX, v.X)
		minY, maxY = min(minY, v.Y), max(maxY, v.Y)
		if v.R != 1 || v.G != 0 || v.A != float32(128)/255 {
			t.Errorf("vertex color = %v %v %v %v", v.R, v.G, v.B, v.A)
		}
	}
	if minX != 10 || minY != 20 || maxX != 40 || maxY != 60 {
		t.Errorf("bounds = (%v,%v)-(%v,%v), want (10,20)-(40,60)", minX, minY, maxX, maxY)
	}

	b.reset()
	b.rect(overlay.Rect{}, color.White)
	if len(b.verts) != 0 {
		t.Errorf("empty rect produced %d vertices", len(b.verts))
	}
}

func TestBatchStrokeRect(t *testing.T) {
	var b batch
	b.strokeRect(overlay.RectFromSize(0, 0, 100, 50), 2, color.White)
	if len(b.verts) != 4*6 {
		t.Errorf("outline produced %d vertices, want 24", len(b.verts))
	}

	b.reset()
	b.strokeRect(overlay.RectFromSize(0, 0, 3, 3), 2, color.White)
	if len(b.verts) != 6 {
		t.Errorf("thick outline of small rect produced %d vertices, want a single fill", len(b.verts))
	}
}

func TestBatchLine(t *testing.T) {
	var b batch
	b.line(overlay.Point{X: 0, Y: 5}, overlay.Point{X: 10, Y: 5}, 2, color.White)

	if len(b.verts) != 6 {
		t.Fatalf("got %d vertices, want 6", len(b.verts))
	}
	for _, v := range b.verts {
		if v.Y != 4 && v.Y != 6 {
			t.Errorf("vertex y = %v, want 4 or 6", v.Y)
		}
	}

	b.reset()
	b.line(overlay.Point{X: 3, Y: 3}, overlay.Point{X: 3, Y: 3}, 2, color.White)
	if len(b.verts) != 0 {
		t.Errorf("zero-length line produced %d vertices", len(b.verts))
	}
}

func TestOrthoMatrixMapsCorners(t *testing.T) {
	m := orthoMatrix(0, 800, 600, 0, -1, 1)
	project := func(x, y float32) (float32, float32) {
		return m[0]*x + m[12], m[5]*y + m[13]
	}

	near := func(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-5 }

	if x, y := project(0, 0); !near(x, -1) || !near(y, 1) {
		t.Errorf("top-left maps to (%v,%v), want (-1,1)", x, y)
	}
	if x, y := project(800, 600); !near(x, 1) || !near(y, -1) {
		t.Errorf("bottom-right maps to (%v,%v), want (1,-1)", x, y)
	}
}

func TestFlipRows(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	for y := range 3 {
		img.SetRGBA(0, y, color.RGBA{R: uint8(y), A: 255})
	}
	flipRows(img)
	for y := range 3 {
		if got := img.RGBAAt(0, y).R; got != uint8(2-y) {
			t.Errorf("row %d holds %d, want %d", y, got, 2-y)
		}
	}
}
