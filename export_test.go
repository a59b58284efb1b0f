package overlay

// Alive returns the number of render goroutines currently running.
func (l *RenderLoop) Alive() int {
	return int(l.alive.Load())
}

// Loop exposes the render loop of a canvas.
func (c *Canvas) Loop() *RenderLoop {
	return c.loop
}
