package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Phase is one stage of an SPH step, in execution order.
type Phase int

const (
	PhaseNeighbors Phase = iota
	PhaseDensity
	PhasePressure
	PhaseForces
	PhaseIntegrate
	PhaseTelemetry
	NumPhases
)

// phaseNone marks that no phase is running.
const phaseNone Phase = -1

var phaseNames = [NumPhases]string{
	PhaseNeighbors: "neighbors",
	PhaseDensity:   "density",
	PhasePressure:  "pressure",
	PhaseForces:    "forces",
	PhaseIntegrate: "integrate",
	PhaseTelemetry: "telemetry",
}

func (p Phase) String() string {
	if p < 0 || p >= NumPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// PhaseTimes holds one duration per phase.
type PhaseTimes [NumPhases]time.Duration

// stepSample is the timing of one committed or attempted step.
type stepSample struct {
	total  time.Duration
	phases PhaseTimes
}

// PerfCollector times the phases of each step and keeps the last
// windowSize steps. A dt = 0 step only records the phases it runs.
type PerfCollector struct {
	ring  []stepSample
	next  int
	count int

	cur        stepSample
	running    Phase
	stepStart  time.Time
	phaseStart time.Time

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector averages over windowSize steps (60 if not positive).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		ring:    make([]stepSample, windowSize),
		running: phaseNone,
	}
}

// StartStep begins timing a step.
func (p *PerfCollector) StartStep() {
	p.cur = stepSample{}
	p.running = phaseNone
	p.stepStart = time.Now()
}

// StartPhase closes the running phase and opens phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.running = phase
	p.phaseStart = now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.running != phaseNone {
		p.cur.phases[p.running] += now.Sub(p.phaseStart)
		p.running = phaseNone
	}
}

// EndStep closes the step and stores it in the window.
func (p *PerfCollector) EndStep() {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.stepStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	if p.count < len(p.ring) {
		p.count++
	}
}

// RecordFrame marks a rendered frame; the viewer calls it once per frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarises step timing over the window.
type PerfStats struct {
	Steps int // samples in the window

	AvgStep time.Duration
	MinStep time.Duration
	MaxStep time.Duration
	P90Step time.Duration

	PhaseAvg PhaseTimes
	PhasePct [NumPhases]float64 // share of the average step, 0-100

	StepsPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Slowest returns the phase with the largest average time.
func (s PerfStats) Slowest() Phase {
	slowest := PhaseNeighbors
	for ph := PhaseNeighbors; ph < NumPhases; ph++ {
		if s.PhaseAvg[ph] > s.PhaseAvg[slowest] {
			slowest = ph
		}
	}
	return slowest
}

// Stats aggregates the current window.
func (p *PerfCollector) Stats() PerfStats {
	out := PerfStats{Steps: p.count, FrameDuration: p.frame}
	if p.frame > 0 {
		out.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.count == 0 {
		return out
	}

	totals := make([]float64, p.count)
	var phaseSum [NumPhases]float64
	for i, s := range p.ring[:p.count] {
		totals[i] = float64(s.total)
		for ph, d := range s.phases {
			phaseSum[ph] += float64(d)
		}
	}

	mean := stat.Mean(totals, nil)
	out.AvgStep = time.Duration(mean)
	out.MinStep = time.Duration(floats.Min(totals))
	out.MaxStep = time.Duration(floats.Max(totals))
	sort.Float64s(totals)
	out.P90Step = time.Duration(stat.Quantile(0.9, stat.Empirical, totals, nil))

	n := float64(p.count)
	for ph := range phaseSum {
		out.PhaseAvg[ph] = time.Duration(phaseSum[ph] / n)
		if mean > 0 {
			out.PhasePct[ph] = phaseSum[ph] / n / mean * 100
		}
	}
	if mean > 0 {
		out.StepsPerSecond = float64(time.Second) / mean
	}
	return out
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf", "perf", s)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_step_us", s.AvgStep.Microseconds()),
		slog.Int64("p90_step_us", s.P90Step.Microseconds()),
		slog.Int64("max_step_us", s.MaxStep.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
		slog.String("slowest", s.Slowest().String()),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int     `csv:"window_end"`
	AvgStepUS    int64   `csv:"avg_step_us"`
	MinStepUS    int64   `csv:"min_step_us"`
	MaxStepUS    int64   `csv:"max_step_us"`
	P90StepUS    int64   `csv:"p90_step_us"`
	StepsPerSec  float64 `csv:"steps_per_sec"`
	FPS          float64 `csv:"fps"`
	NeighborsPct float64 `csv:"neighbors_pct"`
	DensityPct   float64 `csv:"density_pct"`
	PressurePct  float64 `csv:"pressure_pct"`
	ForcesPct    float64 `csv:"forces_pct"`
	IntegratePct float64 `csv:"integrate_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens s for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgStepUS:    s.AvgStep.Microseconds(),
		MinStepUS:    s.MinStep.Microseconds(),
		MaxStepUS:    s.MaxStep.Microseconds(),
		P90StepUS:    s.P90Step.Microseconds(),
		StepsPerSec:  s.StepsPerSecond,
		FPS:          s.FPS,
		NeighborsPct: s.PhasePct[PhaseNeighbors],
		DensityPct:   s.PhasePct[PhaseDensity],
		PressurePct:  s.PhasePct[PhasePressure],
		ForcesPct:    s.PhasePct[PhaseForces],
		IntegratePct: s.PhasePct[PhaseIntegrate],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
