package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sph/components"
	"github.com/pthm-cable/sph/renderer"
	"github.com/pthm-cable/sph/telemetry"
	"github.com/pthm-cable/sph/ui"
)

// Draw renders the displayed frame and the UI.
func (v *Viewer) Draw() {
	v.sim.Perf().RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 14, B: 18, A: 255})

	if v.overlays.IsEnabled(ui.OverlayDomain) {
		renderer.DrawDomain(v.camera, rl.Color{R: 90, G: 90, B: 100, A: 255})
	}

	if v.overlays.IsEnabled(ui.OverlayTrails) {
		v.trails.Draw(v.trailFrames(), v.camera)
	}

	switch {
	case v.overlays.IsEnabled(ui.OverlaySpeedColors):
		v.particles.Mode = renderer.ColorSpeed
	case v.overlays.IsEnabled(ui.OverlayFlatColors):
		v.particles.Mode = renderer.ColorFlat
	default:
		v.particles.Mode = renderer.ColorDensity
	}
	v.particles.ShowBoundary = v.overlays.IsEnabled(ui.OverlayBoundary)
	v.particles.Draw(&v.snap, v.camera)

	v.drawUI()

	rl.EndDrawing()
}

// trailLength is the number of recorded frames a trail spans.
const trailLength = 12

// trailFrames returns the recorded frames leading up to the displayed one.
func (v *Viewer) trailFrames() []*components.Snapshot {
	h := v.sim.Frames()
	if h == nil {
		return nil
	}
	end := v.player.FrameIndex()
	v.trailBuf = v.trailBuf[:0]
	for i := max(0, end-trailLength+1); i <= end; i++ {
		if f := h.Frame(i); f != nil {
			v.trailBuf = append(v.trailBuf, f)
		}
	}
	return v.trailBuf
}

func (v *Viewer) drawUI() {
	cfg := v.sim.Config()

	v.hud.Draw(ui.HUDData{
		Title:         "SPH",
		FluidCount:    v.snap.NumFluid,
		BoundaryCount: v.snap.Len() - v.snap.NumFluid,
		Step:          v.snap.Step,
		Time:          v.snap.Time,
		Speed:         v.player.Speed(),
		FPS:           rl.GetFPS(),
		Paused:        v.player.Paused(),
		Live:          v.player.Live(),
		Frame:         v.player.FrameIndex(),
		FrameCount:    v.player.FrameCount(),
		Err:           v.sim.Err(),
	})

	if v.overlays.IsEnabled(ui.OverlayStats) {
		stats := telemetry.Sample(&v.snap, cfg.Domain.Min.Vec(), cfg.Domain.Max.Vec())
		v.stats.Draw(stats, cfg.Fluid.RestDensity)
	}
	if v.overlays.IsEnabled(ui.OverlayPerf) {
		v.perf.Draw(v.sim.Perf().Stats())
	}
	v.controls.Draw(v.overlays)

	h := int32(v.screenHeight)
	v.hud.DrawControls(h-v.playback.Height(), controlsLegend)
	v.playback.Draw(v.player, int32(v.screenWidth), h)
}
