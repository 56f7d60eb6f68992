// Package simulation orchestrates the SPH step over an owned particle set.
package simulation

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/components"
	"github.com/pthm-cable/sph/config"
	"github.com/pthm-cable/sph/systems"
	"github.com/pthm-cable/sph/telemetry"
)

// Options configures the ambient behaviour around the core step.
type Options struct {
	LogStats      bool                        // Log windowed stats via slog
	OutputDir     string                      // Directory for CSV output (empty = disabled)
	StatsCallback func(telemetry.WindowStats) // Called on each stats flush (optional)
	RecordFrames  bool                        // Keep a bounded frame history
	CheckpointDir string                      // Save a checkpoint on each bookmark (empty = disabled)
}

// bookmarkHistory is the number of stats windows bookmarks compare against.
const bookmarkHistory = 10

// Simulation owns a particle set and advances it one step at a time.
// It is not safe for concurrent use; Snapshot copies are.
type Simulation struct {
	cfg  *config.Config
	opts Options

	kernel  systems.Kernel
	gravity r2.Vec
	ps      *components.ParticleSet

	// Neighbor search
	grid      *systems.SpatialGrid // nil for brute force
	neighbors [][]systems.Neighbor

	// Per-step buffers
	terms   []float64 // p/ρ²
	acc     []r2.Vec
	nextPos []r2.Vec
	nextVel []r2.Vec

	pool *workerPool

	// Telemetry
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	frames    *FrameHistory
	bookmarks *telemetry.BookmarkDetector
	marks     []telemetry.Bookmark
	scratch   components.Snapshot

	// State
	step       int
	time       float64
	err        error // sticky fatal error
	degenerate int   // zero-density fallbacks in the last step
}

// New creates a simulation from cfg with default options.
func New(cfg *config.Config) (*Simulation, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a simulation from cfg. cfg is copied and resolved;
// an invalid config returns an error wrapping config.ErrInvalidConfig.
func NewWithOptions(cfg *config.Config, opts Options) (*Simulation, error) {
	resolved, err := resolve(cfg)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		opts: opts,
		perf: telemetry.NewPerfCollector(resolved.Telemetry.WindowSteps),
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	s.output = output
	if err := s.output.WriteConfig(resolved); err != nil {
		s.output.Close()
		return nil, err
	}

	s.init(resolved)

	slog.Info("simulation created",
		"fluid", s.ps.NumFluid(),
		"boundary", s.ps.NumBoundary(),
		"h", resolved.Kernel.H,
		"radius", s.kernel.Radius(),
		"neighbor_search", resolved.Physics.NeighborSearch,
		"workers", s.pool.numWorkers,
	)
	return s, nil
}

func resolve(cfg *config.Config) (*config.Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	resolved := cfg.Clone()
	if err := resolved.Resolve(); err != nil {
		return nil, err
	}
	return resolved, nil
}

// init builds all state for a resolved config.
func (s *Simulation) init(cfg *config.Config) {
	s.cfg = cfg
	s.kernel = systems.NewKernel(cfg.Kernel.H, cfg.Kernel.Cutoff)
	s.gravity = cfg.Physics.Gravity.Vec()

	if s.pool == nil || s.pool.numWorkers != workerCount(cfg.Physics.Workers) {
		if s.pool != nil {
			s.pool.stop()
		}
		s.pool = newWorkerPool(cfg.Physics.Workers)
	}

	s.ps = buildParticleSet(cfg)
	n := s.ps.Len()

	s.grid = nil
	if cfg.Physics.NeighborSearch == config.NeighborGrid {
		s.grid = systems.NewSpatialGrid(cfg.Domain.Min.Vec(), cfg.Domain.Max.Vec(), s.kernel.Radius())
	}
	s.neighbors = make([][]systems.Neighbor, n)
	for i := range s.neighbors {
		s.neighbors[i] = make([]systems.Neighbor, 0, 32)
	}

	s.terms = make([]float64, n)
	s.acc = make([]r2.Vec, n)
	s.nextPos = make([]r2.Vec, n)
	s.nextVel = make([]r2.Vec, n)

	s.collector = telemetry.NewCollector(cfg.Telemetry.WindowSteps, cfg.Domain.Min.Vec(), cfg.Domain.Max.Vec())
	s.bookmarks = telemetry.NewBookmarkDetector(cfg.Fluid.RestDensity, bookmarkHistory)
	s.marks = nil
	s.frames = nil
	if s.opts.RecordFrames {
		s.frames = NewFrameHistory(cfg.Telemetry.FrameEvery, cfg.Telemetry.MaxFrames)
	}

	s.step = 0
	s.time = 0
	s.err = nil
	s.degenerate = 0

	// Sense the initial density with the same search the step uses, then
	// fix the reference densities and refresh pressure.
	s.updateNeighbors()
	s.computeDensity()
	assignRestDensity(s.ps, cfg)
	s.computePressure()

	if s.frames != nil {
		s.frames.Record(s.ps, 0, 0)
	}
}

// Step advances the simulation by dt using semi-implicit Euler.
// dt = 0 refreshes density and pressure without moving anything.
// A non-finite result is not committed: Step returns a *StepError wrapping
// ErrUnstable and every later call returns ErrHalted until Reset.
func (s *Simulation) Step(dt float64) error {
	if s.err != nil {
		return fmt.Errorf("%w: %w", ErrHalted, s.err)
	}
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: dt = %g", ErrInvalidTimeStep, dt)
	}

	s.perf.StartStep()
	defer s.perf.EndStep()

	s.perf.StartPhase(telemetry.PhaseNeighbors)
	s.updateNeighbors()

	s.perf.StartPhase(telemetry.PhaseDensity)
	s.computeDensity()

	s.perf.StartPhase(telemetry.PhasePressure)
	s.computePressure()

	if dt > 0 {
		s.perf.StartPhase(telemetry.PhaseForces)
		s.pool.run(s.ps.NumFluid(), func(i0, i1 int) {
			systems.ComputeAccelerations(s.ps, s.neighbors, s.kernel, s.terms, s.gravity, s.acc, i0, i1)
		})

		s.perf.StartPhase(telemetry.PhaseIntegrate)
		if err := s.integrate(dt); err != nil {
			return err
		}
	}

	s.step++
	s.time += dt

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.recordTelemetry()
	return nil
}

func (s *Simulation) updateNeighbors() {
	pos := s.ps.Pos
	radius := s.kernel.Radius()

	if s.grid != nil {
		s.grid.Rebuild(pos)
		s.pool.run(len(pos), func(i0, i1 int) {
			for i := i0; i < i1; i++ {
				s.neighbors[i] = s.grid.QueryRadiusInto(s.neighbors[i][:0], pos, i, radius)
			}
		})
		return
	}

	s.pool.run(len(pos), func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			s.neighbors[i] = systems.BruteForceInto(s.neighbors[i][:0], pos, i, radius)
		}
	})
}

func (s *Simulation) computeDensity() {
	s.pool.run(s.ps.Len(), func(i0, i1 int) {
		systems.ComputeDensity(s.ps, s.neighbors, s.kernel, s.ps.Density, i0, i1)
	})
}

func (s *Simulation) computePressure() {
	cfg := s.cfg
	systems.ComputePressure(s.ps.Density, s.ps.RestDensity, cfg.Fluid.Stiffness, cfg.Pressure.ClampNegative, s.ps.Pressure)
	s.degenerate = systems.PressureTerms(s.ps.Pressure, s.ps.Density, s.terms)
}

// integrate stages the fluid update, checks it, and commits it.
func (s *Simulation) integrate(dt float64) error {
	nf := s.ps.NumFluid()
	s.pool.run(nf, func(i0, i1 int) {
		systems.Integrate(s.ps, s.acc, dt, s.cfg.Physics.MaxSpeed, s.nextPos, s.nextVel, i0, i1)
	})

	if i := systems.FirstNonFinite(s.nextPos, s.nextVel, nf); i >= 0 {
		s.err = &StepError{
			Step:     s.step + 1,
			Time:     s.time + dt,
			Particle: i,
			Wrapped:  ErrUnstable,
		}
		slog.Error("simulation unstable", "step", s.step+1, "particle", i, "density", s.ps.Density[i])
		return s.err
	}

	copy(s.ps.Pos[:nf], s.nextPos[:nf])
	copy(s.ps.Vel[:nf], s.nextVel[:nf])
	return nil
}

// Snapshot returns a copy of the current state.
// Density and pressure are those sensed at the start of the last step.
func (s *Simulation) Snapshot() components.Snapshot {
	var snap components.Snapshot
	s.SnapshotInto(&snap)
	return snap
}

// SnapshotInto copies the current state into dst, reusing its buffers.
func (s *Simulation) SnapshotInto(dst *components.Snapshot) {
	s.ps.SnapshotInto(dst)
	dst.Step = s.step
	dst.Time = s.time
}

// Reset rebuilds the particle set from cfg, discarding all prior state.
// If cfg is invalid the error is returned and the current state is kept.
func (s *Simulation) Reset(cfg *config.Config) error {
	resolved, err := resolve(cfg)
	if err != nil {
		return err
	}
	s.init(resolved)
	slog.Info("simulation reset", "fluid", s.ps.NumFluid(), "boundary", s.ps.NumBoundary())
	return nil
}

// Close stops the worker pool and closes any output files.
func (s *Simulation) Close() error {
	s.pool.stop()
	return s.output.Close()
}

// Time returns the simulated time in seconds.
func (s *Simulation) Time() float64 { return s.time }

// Steps returns the number of committed steps.
func (s *Simulation) Steps() int { return s.step }

// Err returns the fatal error that halted the simulation, if any.
func (s *Simulation) Err() error { return s.err }

// Config returns the resolved configuration in use.
func (s *Simulation) Config() *config.Config { return s.cfg }

// NumFluid returns the number of fluid particles.
func (s *Simulation) NumFluid() int { return s.ps.NumFluid() }

// DegenerateCount returns how many particles hit the zero-density
// fallback in the last step.
func (s *Simulation) DegenerateCount() int { return s.degenerate }

// Frames returns the frame history, or nil if recording is disabled.
func (s *Simulation) Frames() *FrameHistory { return s.frames }

// Bookmarks returns the notable moments detected since construction or the
// last Reset.
func (s *Simulation) Bookmarks() []telemetry.Bookmark { return s.marks }

// Perf returns the step timing collector.
func (s *Simulation) Perf() *telemetry.PerfCollector { return s.perf }
