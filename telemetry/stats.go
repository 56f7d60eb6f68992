package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/sph/components"
)

// PhysicalStats summarises the fluid particles of one snapshot.
type PhysicalStats struct {
	FluidCount    int
	KineticEnergy float64
	Momentum      r2.Vec
	MaxSpeed      float64

	DensityMean float64
	DensityStd  float64
	DensityMin  float64
	DensityMax  float64
	DensityP90  float64
	PressureMax float64

	Escaped int // Fluid particles outside the domain
}

// Sample computes physical statistics over the fluid particles of snap.
// Particles outside [min, max] are counted as escaped.
func Sample(snap *components.Snapshot, min, max r2.Vec) PhysicalStats {
	n := snap.NumFluid
	s := PhysicalStats{FluidCount: n}
	if n == 0 {
		return s
	}

	for i := 0; i < n; i++ {
		v := snap.Velocities[i]
		m := snap.Mass[i]
		speed2 := r2.Norm2(v)
		s.KineticEnergy += 0.5 * m * speed2
		if speed := r2.Norm(v); speed > s.MaxSpeed {
			s.MaxSpeed = speed
		}

		p := snap.Positions[i]
		if p.X < min.X || p.X > max.X || p.Y < min.Y || p.Y > max.Y {
			s.Escaped++
		}
	}

	s.Momentum = TotalMomentum(snap)

	density := snap.Density[:n]
	s.DensityMean, s.DensityStd = stat.PopMeanStdDev(density, nil)
	s.DensityMin = floats.Min(density)
	s.DensityMax = floats.Max(density)
	s.PressureMax = floats.Max(snap.Pressure[:n])

	sorted := make([]float64, n)
	copy(sorted, density)
	sort.Float64s(sorted)
	s.DensityP90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)

	return s
}

// TotalMomentum returns Σ m·v over the fluid particles of snap.
func TotalMomentum(snap *components.Snapshot) r2.Vec {
	var p r2.Vec
	for i := 0; i < snap.NumFluid; i++ {
		p = r2.Add(p, r2.Scale(snap.Mass[i], snap.Velocities[i]))
	}
	return p
}

// WindowStats holds aggregated statistics for a window of steps.
type WindowStats struct {
	WindowStartStep int     `csv:"-"`
	WindowEndStep   int     `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	FluidCount    int     `csv:"fluid"`
	KineticEnergy float64 `csv:"kinetic_energy"`
	MomentumX     float64 `csv:"momentum_x"`
	MomentumY     float64 `csv:"momentum_y"`
	MaxSpeed      float64 `csv:"max_speed"`
	PeakSpeed     float64 `csv:"peak_speed"` // Highest max speed seen during the window

	DensityMean float64 `csv:"density_mean"`
	DensityStd  float64 `csv:"density_std"`
	DensityMin  float64 `csv:"density_min"`
	DensityMax  float64 `csv:"density_max"`
	DensityP90  float64 `csv:"density_p90"`
	PressureMax float64 `csv:"pressure_max"`

	Escaped           int `csv:"escaped"`
	DegenerateDensity int `csv:"degenerate_density"` // Zero-density fallbacks during the window
}

// LogStats logs the window stats.
func (s WindowStats) LogStats() {
	slog.Info("sph_stats", "stats", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_end", s.WindowEndStep),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("fluid", s.FluidCount),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("momentum_x", s.MomentumX),
		slog.Float64("momentum_y", s.MomentumY),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("peak_speed", s.PeakSpeed),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_std", s.DensityStd),
		slog.Float64("density_max", s.DensityMax),
		slog.Float64("pressure_max", s.PressureMax),
		slog.Int("escaped", s.Escaped),
		slog.Int("degenerate_density", s.DegenerateDensity),
	)
}
