// Package viewer is the interactive raylib front end: it plays a
// simulation through a Player and draws the displayed frame.
package viewer

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sph/camera"
	"github.com/pthm-cable/sph/components"
	"github.com/pthm-cable/sph/renderer"
	"github.com/pthm-cable/sph/simulation"
	"github.com/pthm-cable/sph/ui"
)

// Viewer owns the window-side state for one simulation.
type Viewer struct {
	sim    *simulation.Simulation
	player *simulation.Player

	camera    *camera.Camera
	particles *renderer.ParticleRenderer
	trails    *renderer.TrailRenderer
	trailBuf  []*components.Snapshot

	overlays *ui.OverlayRegistry
	hud      *ui.HUD
	stats    *ui.StatsPanel
	perf     *ui.PerfPanel
	controls *ui.ControlsPanel
	playback *ui.PlaybackBar

	snap components.Snapshot // displayed frame

	screenWidth, screenHeight float32
}

// New creates a viewer for sim. The raylib window must already be open.
func New(sim *simulation.Simulation) *Viewer {
	cfg := sim.Config()
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())

	v := &Viewer{
		sim:          sim,
		player:       simulation.NewPlayer(sim),
		camera:       camera.New(w, h, float32(cfg.Domain.Min.X), float32(cfg.Domain.Min.Y), float32(cfg.Domain.Max.X), float32(cfg.Domain.Max.Y)),
		particles:    renderer.NewParticleRenderer(cfg.Fluid.Spacing, cfg.Fluid.RestDensity),
		trails:       renderer.NewTrailRenderer(),
		overlays:     ui.NewOverlayRegistry(),
		hud:          ui.NewHUD(),
		stats:        ui.NewStatsPanel(int32(w)-270, 10, 260),
		perf:         ui.NewPerfPanel(int32(w)-270, 240, 260),
		controls:     ui.NewControlsPanel(10, 100, 220),
		playback:     ui.NewPlaybackBar(),
		screenWidth:  w,
		screenHeight: h,
	}
	if cfg.Physics.MaxSpeed > 0 {
		v.particles.MaxSpeed = cfg.Physics.MaxSpeed
	}
	return v
}

// Player returns the playback controller.
func (v *Viewer) Player() *simulation.Player {
	return v.player
}

// Update handles input and advances playback by one frame.
func (v *Viewer) Update() {
	v.handleInput()

	if err := v.player.Update(); err != nil {
		slog.Error("playback halted", "step", v.sim.Steps(), "error", err)
	}
	v.player.Current(&v.snap)
}
