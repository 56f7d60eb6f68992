// Package renderer draws particle snapshots with raylib.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sph/camera"
	"github.com/pthm-cable/sph/components"
)

// ColorMode selects what the fluid particle color encodes.
type ColorMode int

const (
	ColorDensity ColorMode = iota // Density relative to rest
	ColorSpeed                    // Speed relative to MaxSpeed
	ColorFlat
)

// ParticleRenderer renders fluid and boundary particles.
type ParticleRenderer struct {
	Mode ColorMode

	RestDensity  float64 // Density drawn as white in ColorDensity mode
	DensitySpan  float64 // Relative deviation that saturates the color
	MaxSpeed     float64 // Speed that saturates ColorSpeed
	Radius       float32 // Particle radius in world units
	ShowBoundary bool

	FluidColor    rl.Color
	BoundaryColor rl.Color
}

// NewParticleRenderer creates a renderer for particles at the given spacing.
func NewParticleRenderer(spacing, restDensity float64) *ParticleRenderer {
	return &ParticleRenderer{
		Mode:          ColorDensity,
		RestDensity:   restDensity,
		DensitySpan:   0.05,
		MaxSpeed:      2,
		Radius:        float32(spacing * 0.45),
		ShowBoundary:  true,
		FluidColor:    rl.Color{R: 70, G: 140, B: 230, A: 255},
		BoundaryColor: rl.Color{R: 110, G: 110, B: 110, A: 255},
	}
}

// Draw renders every particle of snap visible through cam.
func (r *ParticleRenderer) Draw(snap *components.Snapshot, cam *camera.Camera) {
	radius := max(cam.WorldLength(r.Radius), 1)

	for i := 0; i < snap.Len(); i++ {
		p := snap.Positions[i]
		wx, wy := float32(p.X), float32(p.Y)
		if !cam.IsVisible(wx, wy, r.Radius) {
			continue
		}

		var color rl.Color
		if snap.Kind[i] == components.KindBoundary {
			if !r.ShowBoundary {
				continue
			}
			color = r.BoundaryColor
		} else {
			color = r.fluidColor(snap, i)
		}

		sx, sy := cam.WorldToScreen(wx, wy)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, color)
	}
}

func (r *ParticleRenderer) fluidColor(snap *components.Snapshot, i int) rl.Color {
	switch r.Mode {
	case ColorDensity:
		return DensityColor(snap.Density[i], r.RestDensity, r.DensitySpan)
	case ColorSpeed:
		v := snap.Velocities[i]
		return rampColor(math.Hypot(v.X, v.Y)/r.MaxSpeed, r.FluidColor, rl.Color{R: 255, G: 240, B: 200, A: 255})
	default:
		return r.FluidColor
	}
}

// DensityColor maps density to a diverging blue-white-red ramp: blue below
// rest, white at rest, red above. span is the relative deviation drawn at
// full saturation.
func DensityColor(density, rest, span float64) rl.Color {
	white := rl.Color{R: 235, G: 240, B: 245, A: 255}
	if rest <= 0 || span <= 0 {
		return white
	}
	dev := (density/rest - 1) / span
	if dev < 0 {
		return rampColor(-dev, white, rl.Color{R: 40, G: 90, B: 220, A: 255})
	}
	return rampColor(dev, white, rl.Color{R: 220, G: 60, B: 50, A: 255})
}

// rampColor blends from a to b by t clamped to [0, 1].
func rampColor(t float64, a, b rl.Color) rl.Color {
	if !(t > 0) {
		return a
	}
	if t > 1 {
		t = 1
	}
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return rl.Color{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: lerp(a.A, b.A)}
}

// DrawDomain outlines the domain bounds.
func DrawDomain(cam *camera.Camera, color rl.Color) {
	x0, y0 := cam.WorldToScreen(cam.MinX, cam.MaxY)
	x1, y1 := cam.WorldToScreen(cam.MaxX, cam.MinY)
	rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 1, color)
}
