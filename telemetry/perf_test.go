package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorTracksOnlyRunPhases(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseNeighbors)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseForces)
		time.Sleep(200 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.Steps != 5 {
		t.Errorf("Steps = %d, want 5", stats.Steps)
	}
	if stats.AvgStep <= 0 {
		t.Error("expected positive average step duration")
	}
	if stats.PhaseAvg[PhaseNeighbors] <= 0 || stats.PhaseAvg[PhaseForces] <= 0 {
		t.Errorf("phase averages = %v", stats.PhaseAvg)
	}
	if stats.PhaseAvg[PhaseDensity] != 0 {
		t.Error("density phase was never started")
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseIntegrate)
		time.Sleep(10 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.Steps != 5 {
		t.Errorf("Steps = %d, want window size 5", stats.Steps)
	}
	if stats.StepsPerSecond <= 0 {
		t.Error("expected positive steps per second")
	}
	if stats.MinStep > stats.P90Step || stats.P90Step > stats.MaxStep {
		t.Errorf("min %v, p90 %v, max %v out of order", stats.MinStep, stats.P90Step, stats.MaxStep)
	}
}

func TestPerfStatsSlowestPhase(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseDensity)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseForces)
		time.Sleep(2 * time.Millisecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.PhasePct[PhaseForces] <= stats.PhasePct[PhaseDensity] {
		t.Errorf("forces %.1f%% should exceed density %.1f%%", stats.PhasePct[PhaseForces], stats.PhasePct[PhaseDensity])
	}
	if got := stats.Slowest(); got != PhaseForces {
		t.Errorf("Slowest() = %v, want forces", got)
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	stats := NewPerfCollector(10).Stats()
	if stats.Steps != 0 || stats.AvgStep != 0 || stats.StepsPerSecond != 0 {
		t.Errorf("empty stats = %+v", stats)
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseNeighbors.String() != "neighbors" || PhaseTelemetry.String() != "telemetry" {
		t.Error("unexpected phase names")
	}
	if NumPhases.String() != "unknown" {
		t.Errorf("NumPhases.String() = %q", NumPhases.String())
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	s := PerfStats{AvgStep: 1500 * time.Microsecond}
	s.PhasePct[PhaseDensity] = 40
	s.PhasePct[PhaseForces] = 35

	row := s.ToCSV(200)
	if row.WindowEnd != 200 || row.AvgStepUS != 1500 {
		t.Errorf("row = %+v", row)
	}
	if row.DensityPct != 40 || row.ForcesPct != 35 || row.NeighborsPct != 0 {
		t.Errorf("phase columns = %+v", row)
	}
}
