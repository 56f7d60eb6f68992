package simulation

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/components"
	"github.com/pthm-cable/sph/config"
	"github.com/pthm-cable/sph/telemetry"
)

// blockConfig is a 10x10 block at spacing s with h = 1.5s, well clear of
// the walls of a unit domain.
func blockConfig() *config.Config {
	cfg := config.Default()
	cfg.Domain.Min = config.Vec2{0, 0}
	cfg.Domain.Max = config.Vec2{1, 1}
	cfg.Fluid.Spacing = 0.02
	cfg.Kernel.H = 0.03
	cfg.Fluid.Cols, cfg.Fluid.Rows = 10, 10
	cfg.Fluid.Origin = config.Vec2{0.41, 0.3}
	cfg.Fluid.Mass = 0.4
	cfg.Fluid.Stiffness = 1000
	cfg.Physics.Gravity = config.Vec2{0, -9.8}
	cfg.Physics.DT = 0.001
	cfg.Boundary.Layers = 2
	cfg.Telemetry.WindowSteps = 10
	return cfg
}

func newSim(t *testing.T, cfg *config.Config) *Simulation {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func momentum(ps *components.ParticleSet) r2.Vec {
	var p r2.Vec
	for i := 0; i < ps.NumFluid(); i++ {
		p = r2.Add(p, r2.Scale(ps.Mass[i], ps.Vel[i]))
	}
	return p
}

func insideDomain(p r2.Vec, cfg *config.Config) bool {
	const eps = 1e-9
	return p.X >= cfg.Domain.Min[0]-eps && p.X <= cfg.Domain.Max[0]+eps &&
		p.Y >= cfg.Domain.Min[1]-eps && p.Y <= cfg.Domain.Max[1]+eps
}

func TestBlockFallsWithoutSpuriousMomentum(t *testing.T) {
	cfg := blockConfig()
	rho, err := MeasureRestDensity(cfg)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Fluid.RestDensity = rho

	s := newSim(t, cfg)
	const dt = 0.001
	totalMass := float64(s.NumFluid()) * cfg.Fluid.Mass
	want := r2.Scale(totalMass*dt, cfg.Physics.Gravity.Vec())

	for step := 1; step <= 100; step++ {
		before := momentum(s.ps)
		if err := s.Step(dt); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		dp := r2.Sub(momentum(s.ps), before)
		if r2.Norm(r2.Sub(dp, want)) > 1e-9 {
			t.Fatalf("step %d: momentum change %v, want %v", step, dp, want)
		}
	}

	if s.Steps() != 100 || math.Abs(s.Time()-0.1) > 1e-12 {
		t.Errorf("Steps() = %d, Time() = %g", s.Steps(), s.Time())
	}
	if s.DegenerateCount() != 0 {
		t.Errorf("DegenerateCount() = %d, want 0", s.DegenerateCount())
	}
}

func TestDefaultBlockStaysInsideWalls(t *testing.T) {
	if testing.Short() {
		t.Skip("long settling run")
	}
	cfg := config.Default()
	if cfg.Physics.MaxSpeed != 0 {
		t.Fatalf("default max_speed = %g, want no clamp", cfg.Physics.MaxSpeed)
	}
	s := newSim(t, cfg)
	floor := cfg.Domain.Min[1]

	lowest := math.Inf(1)
	for step := 1; step <= 2500; step++ {
		if err := s.Step(cfg.Physics.DT); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		for i := 0; i < s.NumFluid(); i++ {
			p := s.ps.Pos[i]
			if !insideDomain(p, s.cfg) {
				t.Fatalf("step %d: fluid particle %d crossed the wall at %v", step, i, p)
			}
			lowest = min(lowest, p.Y)
		}
	}

	// The block must have landed for the check above to mean anything.
	if lowest-floor > 0.1 {
		t.Fatalf("lowest fluid particle stayed at y=%g, block never reached the floor", lowest)
	}
	for _, b := range s.Bookmarks() {
		if b.Type == telemetry.BookmarkEscape {
			t.Errorf("unexpected escape bookmark at step %d: %s", b.Step, b.Description)
		}
	}
}

func TestStepZeroLeavesStateUnchanged(t *testing.T) {
	s := newSim(t, blockConfig())
	before := s.Snapshot()

	if err := s.Step(0); err != nil {
		t.Fatal(err)
	}
	after := s.Snapshot()

	for i := range before.Positions {
		if before.Positions[i] != after.Positions[i] || before.Velocities[i] != after.Velocities[i] {
			t.Fatalf("particle %d moved on dt=0", i)
		}
		if before.Density[i] != after.Density[i] || before.Pressure[i] != after.Pressure[i] {
			t.Fatalf("particle %d: density/pressure %g/%g changed to %g/%g",
				i, before.Density[i], before.Pressure[i], after.Density[i], after.Pressure[i])
		}
	}
	if after.Time != 0 {
		t.Errorf("Time = %g after dt=0", after.Time)
	}
}

func TestBoundaryParticlesNeverMove(t *testing.T) {
	cfg := config.Default()
	cfg.Fluid.Origin = config.Vec2{-0.2, 0.06} // resting against the floor
	s := newSim(t, cfg)

	before := s.Snapshot()
	for step := 0; step < 50; step++ {
		if err := s.Step(cfg.Physics.DT); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
	}
	after := s.Snapshot()

	for i := before.NumFluid; i < before.Len(); i++ {
		if before.Positions[i] != after.Positions[i] || after.Velocities[i] != (r2.Vec{}) {
			t.Fatalf("boundary particle %d changed: %v -> %v", i, before.Positions[i], after.Positions[i])
		}
	}
}

func TestFreeFallMatchesIntegrator(t *testing.T) {
	cfg := config.Default()
	cfg.Fluid.Cols, cfg.Fluid.Rows = 1, 1
	cfg.Fluid.Origin = config.Vec2{0, 0.9}
	cfg.Fluid.Stiffness = 0
	cfg.Boundary.Layers = 0
	s := newSim(t, cfg)

	const dt = 0.001
	y0 := 0.9
	g := cfg.Physics.Gravity[1]
	for n := 1; n <= 200; n++ {
		if err := s.Step(dt); err != nil {
			t.Fatal(err)
		}
		fn := float64(n)
		want := y0 + g*dt*dt*fn*(fn+1)/2
		if got := s.ps.Pos[0].Y; math.Abs(got-want) > 1e-12 {
			t.Fatalf("step %d: y = %.15g, want %.15g", n, got, want)
		}
		if s.ps.Pos[0].X != 0 {
			t.Fatalf("step %d: x drifted to %g", n, s.ps.Pos[0].X)
		}
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := blockConfig()
	cfg.Kernel.H = 0
	if _, err := New(cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("New with h=0: err = %v, want ErrInvalidConfig", err)
	}
	if _, err := New(nil); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("New(nil): err = %v, want ErrInvalidConfig", err)
	}
}

func TestStepRejectsInvalidTimeStep(t *testing.T) {
	s := newSim(t, blockConfig())

	for _, dt := range []float64{-0.001, math.NaN(), math.Inf(1)} {
		if err := s.Step(dt); !errors.Is(err, ErrInvalidTimeStep) {
			t.Errorf("Step(%g): err = %v, want ErrInvalidTimeStep", dt, err)
		}
	}
	if s.Steps() != 0 {
		t.Errorf("rejected steps were counted: %d", s.Steps())
	}
	if err := s.Step(0.001); err != nil {
		t.Errorf("simulation unusable after rejected dt: %v", err)
	}
}

func TestUnstableStepHaltsUntilReset(t *testing.T) {
	cfg := blockConfig()
	s := newSim(t, cfg)
	start := s.ps.Pos[0]
	s.ps.Vel[0] = r2.Vec{X: math.NaN()}

	err := s.Step(0.001)
	if !errors.Is(err, ErrUnstable) {
		t.Fatalf("err = %v, want ErrUnstable", err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != 1 || stepErr.Particle != 0 {
		t.Fatalf("err = %#v, want StepError for step 1, particle 0", err)
	}
	if s.ps.Pos[0] != start || s.Steps() != 0 {
		t.Error("unstable step was committed")
	}

	err = s.Step(0.001)
	if !errors.Is(err, ErrHalted) || !errors.Is(err, ErrUnstable) {
		t.Fatalf("second step err = %v, want ErrHalted wrapping ErrUnstable", err)
	}

	if err := s.Reset(cfg); err != nil {
		t.Fatal(err)
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v after Reset", s.Err())
	}
	if err := s.Step(0.001); err != nil {
		t.Errorf("step after Reset: %v", err)
	}
}

func TestGridAndBruteForceAgree(t *testing.T) {
	grid := blockConfig()
	brute := blockConfig()
	brute.Physics.NeighborSearch = config.NeighborBrute

	a, b := newSim(t, grid), newSim(t, brute)
	for step := 0; step < 20; step++ {
		if err := a.Step(0.001); err != nil {
			t.Fatal(err)
		}
		if err := b.Step(0.001); err != nil {
			t.Fatal(err)
		}
	}

	for i := range a.ps.Pos {
		if d := r2.Norm(r2.Sub(a.ps.Pos[i], b.ps.Pos[i])); d > 1e-12 {
			t.Fatalf("particle %d: grid %v, brute %v", i, a.ps.Pos[i], b.ps.Pos[i])
		}
		if math.Abs(a.ps.Density[i]-b.ps.Density[i]) > 1e-9*a.ps.Density[i] {
			t.Fatalf("particle %d: density grid %g, brute %g", i, a.ps.Density[i], b.ps.Density[i])
		}
	}
}

func TestWorkerCountDoesNotChangeResults(t *testing.T) {
	run := func(workers int) components.Snapshot {
		cfg := config.Default()
		cfg.Physics.Workers = workers
		s := newSim(t, cfg)
		if s.ps.Len() < parallelThreshold {
			t.Fatalf("only %d particles, pool would not be used", s.ps.Len())
		}
		for step := 0; step < 20; step++ {
			if err := s.Step(cfg.Physics.DT); err != nil {
				t.Fatal(err)
			}
		}
		return s.Snapshot()
	}

	serial, parallel := run(1), run(4)
	for i := range serial.Positions {
		if serial.Positions[i] != parallel.Positions[i] || serial.Density[i] != parallel.Density[i] {
			t.Fatalf("particle %d differs between 1 and 4 workers", i)
		}
	}
}

func TestReset(t *testing.T) {
	cfg := blockConfig()
	s := newSim(t, cfg)
	fresh := s.Snapshot()

	for step := 0; step < 5; step++ {
		if err := s.Step(0.001); err != nil {
			t.Fatal(err)
		}
	}

	bad := blockConfig()
	bad.Physics.DT = -1
	if err := s.Reset(bad); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("Reset(bad) = %v, want ErrInvalidConfig", err)
	}
	if s.Steps() != 5 {
		t.Errorf("failed Reset discarded state: Steps() = %d", s.Steps())
	}

	if err := s.Reset(cfg); err != nil {
		t.Fatal(err)
	}
	if s.Steps() != 0 || s.Time() != 0 {
		t.Errorf("after Reset: Steps() = %d, Time() = %g", s.Steps(), s.Time())
	}
	snap := s.Snapshot()
	for i := range fresh.Positions {
		if snap.Positions[i] != fresh.Positions[i] || snap.Velocities[i] != fresh.Velocities[i] {
			t.Fatalf("particle %d not restored by Reset", i)
		}
	}
}

func TestSnapshotDoesNotAliasState(t *testing.T) {
	s := newSim(t, blockConfig())
	snap := s.Snapshot()
	snap.Positions[0] = r2.Vec{X: 99, Y: 99}
	snap.Density[0] = -1

	if s.ps.Pos[0] == snap.Positions[0] || s.ps.Density[0] == -1 {
		t.Error("snapshot writes reached live state")
	}
}

func TestMeasuredRestDensityStartsAtZeroPressure(t *testing.T) {
	cfg := config.Default()
	cfg.Fluid.RestDensityMode = config.RestDensityMeasured
	s := newSim(t, cfg)

	for i, p := range s.ps.Pressure {
		if p != 0 {
			t.Fatalf("particle %d (%v) starts at pressure %g", i, s.ps.Kind[i], p)
		}
	}
}

func TestMeasureRestDensityConvergesToConfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Boundary.Layers = 0

	rho, err := MeasureRestDensity(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if rel := math.Abs(rho-cfg.Fluid.RestDensity) / cfg.Fluid.RestDensity; rel > 2e-3 {
		t.Errorf("measured %g, configured %g (rel err %g)", rho, cfg.Fluid.RestDensity, rel)
	}
}

func TestBoundarySites(t *testing.T) {
	cfg := blockConfig()
	if err := cfg.Resolve(); err != nil {
		t.Fatal(err)
	}

	sites := boundarySites(cfg)
	// 51x51 lattice minus the 47x47 interior
	if len(sites) != 392 {
		t.Errorf("got %d sites, want 392", len(sites))
	}
	for _, p := range sites {
		if !insideDomain(p, cfg) {
			t.Fatalf("site %v outside the domain", p)
		}
	}

	cfg.Boundary.Layers = 0
	if sites := boundarySites(cfg); len(sites) != 0 {
		t.Errorf("layers=0 produced %d sites", len(sites))
	}
}

func TestStatsCallbackPerWindow(t *testing.T) {
	var windows []telemetry.WindowStats
	s, err := NewWithOptions(blockConfig(), Options{
		StatsCallback: func(ws telemetry.WindowStats) { windows = append(windows, ws) },
	})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	for step := 0; step < 30; step++ {
		if err := s.Step(0.001); err != nil {
			t.Fatal(err)
		}
	}

	if len(windows) != 3 {
		t.Fatalf("got %d windows, want 3", len(windows))
	}
	for i, w := range windows {
		if w.WindowEndStep != 10*(i+1) || w.FluidCount != 100 {
			t.Errorf("window %d = end %d, fluid %d", i, w.WindowEndStep, w.FluidCount)
		}
	}
	if windows[2].MomentumY >= 0 {
		t.Errorf("falling block has momentum %g", windows[2].MomentumY)
	}
}

func TestOutputDirReceivesFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewWithOptions(blockConfig(), Options{OutputDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	for step := 0; step < 20; step++ {
		if err := s.Step(0.001); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv", "frames.csv"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestEscapedParticleIsBookmarked(t *testing.T) {
	cfg := config.Default()
	cfg.Fluid.Cols, cfg.Fluid.Rows = 1, 1
	cfg.Fluid.Origin = config.Vec2{0, 0.01}
	cfg.Fluid.Stiffness = 0
	cfg.Boundary.Layers = 0
	cfg.Telemetry.WindowSteps = 10
	s := newSim(t, cfg)

	// Free fall leaves y >= 0 after about 45ms.
	for step := 0; step < 10; step++ {
		if err := s.Step(0.01); err != nil {
			t.Fatal(err)
		}
	}

	marks := s.Bookmarks()
	if len(marks) != 1 || marks[0].Type != telemetry.BookmarkEscape || marks[0].Step != 10 {
		t.Fatalf("bookmarks = %+v, want one escape at step 10", marks)
	}

	if err := s.Reset(cfg); err != nil {
		t.Fatal(err)
	}
	if len(s.Bookmarks()) != 0 {
		t.Error("Reset kept bookmarks")
	}
}
