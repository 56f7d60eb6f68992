package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sph/camera"
	"github.com/pthm-cable/sph/components"
)

// TrailRenderer draws fluid particle paths through recent recorded frames.
type TrailRenderer struct {
	Stride int      // Draw every Stride-th fluid particle
	Width  float32  // Line width in pixels at the head
	Color  rl.Color // Alpha is the head alpha
}

// NewTrailRenderer creates a trail renderer.
func NewTrailRenderer() *TrailRenderer {
	return &TrailRenderer{
		Stride: 3,
		Width:  2,
		Color:  rl.Color{R: 50, G: 100, B: 130, A: 160},
	}
}

// Draw renders trails through frames, oldest first; the last frame is the
// head. Frames must share the same particle layout.
func (r *TrailRenderer) Draw(frames []*components.Snapshot, cam *camera.Camera) {
	if len(frames) < 2 {
		return
	}
	head := frames[len(frames)-1]
	stride := max(r.Stride, 1)

	rl.BeginBlendMode(rl.BlendAdditive)
	defer rl.EndBlendMode()

	segments := len(frames) - 1
	for k := 0; k < segments; k++ {
		a, b := frames[k], frames[k+1]
		if a.Len() != head.Len() || b.Len() != head.Len() {
			continue
		}

		// Quadratic falloff toward the tail
		fade := float32(k+1) / float32(segments)
		fade *= fade
		alpha := float32(r.Color.A) * fade
		if alpha < 1 {
			continue
		}
		color := r.Color
		color.A = uint8(alpha)
		width := max(r.Width*fade, 1)

		for i := 0; i < head.NumFluid; i += stride {
			ax, ay := cam.WorldToScreen(float32(a.Positions[i].X), float32(a.Positions[i].Y))
			bx, by := cam.WorldToScreen(float32(b.Positions[i].X), float32(b.Positions[i].Y))
			rl.DrawLineEx(rl.Vector2{X: ax, Y: ay}, rl.Vector2{X: bx, Y: by}, width, color)
		}
	}
}
