// Package camera maps the bounded simulation domain onto the screen.
package camera

// Camera controls the viewport into the simulation domain.
// World coordinates are y-up; screen coordinates are y-down pixels.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom multiplies the fit scale (1.0 = whole domain visible)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Domain bounds in world units
	MinX, MinY, MaxX, MaxY float32

	// Margin is the fraction of the viewport left empty around the domain at zoom 1
	Margin float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the domain with the whole domain in view.
func New(viewportW, viewportH, minX, minY, maxX, maxY float32) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		MinX:      minX,
		MinY:      minY,
		MaxX:      maxX,
		MaxY:      maxY,
		Margin:    0.05,
		MinZoom:   0.5,
		MaxZoom:   8.0,
	}
	c.Reset()
	return c
}

// fitScale returns the pixels per world unit that fits the domain into the
// viewport, keeping the aspect ratio.
func (c *Camera) fitScale() float32 {
	sx := c.ViewportW * (1 - 2*c.Margin) / (c.MaxX - c.MinX)
	sy := c.ViewportH * (1 - 2*c.Margin) / (c.MaxY - c.MinY)
	return min(sx, sy)
}

// Scale returns the current pixels per world unit.
func (c *Camera) Scale() float32 {
	return c.fitScale() * c.Zoom
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	s := c.Scale()
	sx = c.ViewportW/2 + (wx-c.X)*s
	sy = c.ViewportH/2 - (wy-c.Y)*s
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	s := c.Scale()
	wx = c.X + (sx-c.ViewportW/2)/s
	wy = c.Y - (sy-c.ViewportH/2)/s
	return wx, wy
}

// WorldLength converts a world distance to pixels.
func (c *Camera) WorldLength(d float32) float32 {
	return d * c.Scale()
}

// IsVisible returns true if a circle at (wx, wy) with given world radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	minX, minY, maxX, maxY := c.VisibleWorldBounds()
	return wx+radius >= minX && wx-radius <= maxX && wy+radius >= minY && wy-radius <= maxY
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Pan moves the camera by the given delta in screen pixels.
// The camera center stays inside the domain.
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.X = clamp(c.X+dx/s, c.MinX, c.MaxX)
	c.Y = clamp(c.Y-dy/s, c.MinY, c.MaxY)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset centers the camera on the domain at zoom 1.
func (c *Camera) Reset() {
	c.X = (c.MinX + c.MaxX) / 2
	c.Y = (c.MinY + c.MaxY) / 2
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	s := c.Scale()
	halfW := c.ViewportW / (2 * s)
	halfH := c.ViewportH / (2 * s)
	return c.X - halfW, c.Y - halfH, c.X + halfW, c.Y + halfH
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
