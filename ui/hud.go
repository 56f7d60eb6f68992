package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sph/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title         string
	FluidCount    int
	BoundaryCount int
	Step          int
	Time          float64
	Speed         int
	FPS           int32
	Paused        bool
	Live          bool
	Frame         int
	FrameCount    int
	Err           error
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Fluid: %d | Boundary: %d", data.FluidCount, data.BoundaryCount),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Step: %d | t = %.3fs | Speed: %dx | FPS: %d", data.Step, data.Time, data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	status := "Running"
	switch {
	case data.Err != nil:
		status = "HALTED: " + data.Err.Error()
	case data.Paused:
		status = "PAUSED"
	}
	if !data.Live {
		status += fmt.Sprintf(" | Replay %d/%d", data.Frame+1, data.FrameCount)
	}
	color := rl.Yellow
	if data.Err != nil {
		color = rl.Red
	}
	rl.DrawText(status, 10, 75, 16, color)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// StatsPanel renders physical statistics for the displayed state.
type StatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewStatsPanel creates a stats panel at the given position.
func NewStatsPanel(x, y, width int32) *StatsPanel {
	return &StatsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition moves the panel.
func (p *StatsPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the panel. restDensity is the reference used for the
// deviation bars.
func (p *StatsPanel) Draw(stats telemetry.PhysicalStats, restDensity float64) int32 {
	r := p.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	panelHeight := lineHeight*12 + padding*2
	r.DrawPanel(p.x, p.y, p.width, panelHeight)

	x := p.x + padding
	y := p.y + padding
	inner := p.width - padding*2

	y = r.DrawSectionHeader(x, y, "Fluid")
	y = r.DrawLabelValue(x, y, "Kinetic energy", fmt.Sprintf("%.4g J", stats.KineticEnergy))
	y = r.DrawLabelValue(x, y, "Momentum", fmt.Sprintf("(%.3g, %.3g)", stats.Momentum.X, stats.Momentum.Y))
	y = r.DrawLabelValue(x, y, "Max speed", fmt.Sprintf("%.3f m/s", stats.MaxSpeed))
	y = r.DrawLabelValue(x, y, "Escaped", fmt.Sprintf("%d", stats.Escaped))
	y += 4

	y = r.DrawSectionHeader(x, y, "Density")
	y = r.DrawLabelValue(x, y, "Mean ± std", fmt.Sprintf("%.1f ± %.1f", stats.DensityMean, stats.DensityStd))
	y = r.DrawDeviationBar(x, y, "Min", stats.DensityMin, restDensity, 0.1, inner)
	y = r.DrawDeviationBar(x, y, "P90", stats.DensityP90, restDensity, 0.1, inner)
	y = r.DrawDeviationBar(x, y, "Max", stats.DensityMax, restDensity, 0.1, inner)
	y = r.DrawLabelValue(x, y, "Max pressure", fmt.Sprintf("%.4g Pa", stats.PressureMax))

	return y
}

// PerfPanel renders the step phase timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a perf panel at the given position.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition moves the panel.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders per-phase average time and share of the step.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	panelHeight := lineHeight*int32(telemetry.NumPhases+4) + padding*2
	r.DrawPanel(p.x, p.y, p.width, panelHeight)

	x := p.x + padding
	y := p.y + padding
	barMax := p.width - padding*2 - r.Theme.LabelWidth - 60

	y = r.DrawSectionHeader(x, y, "Step Timing")
	slowest := stats.Slowest()
	for phase := telemetry.PhaseNeighbors; phase < telemetry.NumPhases; phase++ {
		pct := stats.PhasePct[phase]
		label := r.Theme.LabelColor
		if phase == slowest && stats.Steps > 0 {
			label = r.Theme.ValueColor
		}
		rl.DrawText(phase.String(), x, y, r.Theme.FontSize, label)
		barX := x + r.Theme.LabelWidth
		rl.DrawRectangle(barX, y+2, barMax, r.Theme.BarHeight, r.Theme.BarBg)
		rl.DrawRectangle(barX, y+2, int32(float64(barMax)*pct/100), r.Theme.BarHeight, r.Theme.BarFill)
		rl.DrawText(fmt.Sprintf("%.0fus", float64(stats.PhaseAvg[phase].Microseconds())), barX+barMax+5, y, r.Theme.FontSize, r.Theme.ValueColor)
		y += lineHeight
	}
	y += 4
	y = r.DrawLabelValue(x, y, "Avg step", stats.AvgStep.String())
	y = r.DrawLabelValue(x, y, "P90 step", stats.P90Step.String())
	r.DrawLabelValue(x, y, "Steps/s", fmt.Sprintf("%.0f", stats.StepsPerSecond))
}
