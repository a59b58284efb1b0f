package overlay

import "fmt"

// TargetBounds computes the screen rectangle an overlay attached to target
// should occupy. With clientArea false it is the target's outer rectangle.
// With clientArea true it is the target's client rectangle translated to
// screen coordinates. If the client origin cannot be translated, the client
// area is estimated from the outer rectangle with ReconcileClient.
func TargetBounds(g Geometry, target Handle, clientArea bool) (Rect, error) {
	if !target.Valid() {
		return Rect{}, ErrInvalidHandle
	}
	if !clientArea {
		r, err := g.WindowRect(target)
		if err != nil {
			return Rect{}, fmt.Errorf("overlay: target rect: %w", err)
		}
		return r, nil
	}

	client, err := g.ClientRect(target)
	if err != nil {
		return Rect{}, fmt.Errorf("overlay: target client rect: %w", err)
	}
	origin, err := g.ClientToScreen(target, Point{})
	if err == nil {
		return client.Add(origin), nil
	}

	outer, werr := g.WindowRect(target)
	if werr != nil {
		return Rect{}, fmt.Errorf("overlay: target rect: %w", werr)
	}
	return ReconcileClient(outer, client), nil
}

// ReconcileClient estimates the screen position of a window's client area
// from its outer rectangle and its client rectangle when both differ in size.
//
// A width difference is split evenly between the left and right edges. A
// height difference alone is split evenly between top and bottom. When both
// differ, the bottom edge is assumed to be as thick as a side border and the
// rest of the height difference is put on the top edge, where the title bar
// sits. This does not hold for every border geometry.
func ReconcileClient(outer, client Rect) Rect {
	dw := outer.Dx() - client.Dx()
	dh := outer.Dy() - client.Dy()
	r := outer

	switch {
	case dw != 0 && dh != 0:
		half := dw / 2
		r.Left += half
		r.Right -= half
		r.Top += dh - half
		r.Bottom -= half
	case dw != 0:
		r.Left += dw / 2
		r.Right -= dw / 2
	case dh != 0:
		r.Top += dh / 2
		r.Bottom -= dh / 2
	}
	return r
}
