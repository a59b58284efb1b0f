package opengl

import (
	"image/color"
	"math"

	"github.com/go-theft-auto/overlay"
)

// vertex layout: Pos (2 floats) + Color (4 floats, straight alpha)
type vertex struct {
	X, Y       float32
	R, G, B, A float32
}

// batch collects solid triangles for one frame.
type batch struct {
	verts []vertex
}

func (b *batch) reset() {
	b.verts = b.verts[:0]
}

func toFloats(c color.Color) (r, g, b, a float32) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return float32(n.R) / 255, float32(n.G) / 255, float32(n.B) / 255, float32(n.A) / 255
}

// quad appends two triangles covering p0 p1 p2 p3 given in winding order.
func (b *batch) quad(p0, p1, p2, p3 [2]float32, c color.Color) {
	r, g, bl, a := toFloats(c)
	v := func(p [2]float32) vertex {
		return vertex{X: p[0], Y: p[1], R: r, G: g, B: bl, A: a}
	}
	b.verts = append(b.verts, v(p0), v(p1), v(p2), v(p0), v(p2), v(p3))
}

func (b *batch) rect(rc overlay.Rect, c color.Color) {
	if rc.Empty() {
		return
	}
	l, t := float32(rc.Left), float32(rc.Top)
	r, bt := float32(rc.Right), float32(rc.Bottom)
	b.quad([2]float32{l, t}, [2]float32{r, t}, [2]float32{r, bt}, [2]float32{l, bt}, c)
}

func (b *batch) strokeRect(rc overlay.Rect, width int, c color.Color) {
	if rc.Empty() || width <= 0 {
		return
	}
	if 2*width >= rc.Dx() || 2*width >= rc.Dy() {
		b.rect(rc, c)
		return
	}
	b.rect(overlay.Rect{Left: rc.Left, Top: rc.Top, Right: rc.Right, Bottom: rc.Top + width}, c)
	b.rect(overlay.Rect{Left: rc.Left, Top: rc.Bottom - width, Right: rc.Right, Bottom: rc.Bottom}, c)
	b.rect(overlay.Rect{Left: rc.Left, Top: rc.Top + width, Right: rc.Left + width, Bottom: rc.Bottom - width}, c)
	b.rect(overlay.Rect{Left: rc.Right - width, Top: rc.Top + width, Right: rc.Right, Bottom: rc.Bottom - width}, c)
}

func (b *batch) line(from, to overlay.Point, width float32, c color.Color) {
	dx, dy := float64(to.X-from.X), float64(to.Y-from.Y)
	length := math.Hypot(dx, dy)
	if length == 0 || width <= 0 {
		return
	}
	// Perpendicular offset of half the width.
	nx := float32(-dy/length) * width / 2
	ny := float32(dx/length) * width / 2

	x0, y0 := float32(from.X), float32(from.Y)
	x1, y1 := float32(to.X), float32(to.Y)
	b.quad(
		[2]float32{x0 + nx, y0 + ny},
		[2]float32{x1 + nx, y1 + ny},
		[2]float32{x1 - nx, y1 - ny},
		[2]float32{x0 - nx, y0 - ny},
		c,
	)
}
