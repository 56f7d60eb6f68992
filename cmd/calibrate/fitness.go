package main

import (
	"errors"
	"math"
	"sync"

	"github.com/pthm-cable/sph/config"
	"github.com/pthm-cable/sph/simulation"
	"github.com/pthm-cable/sph/telemetry"
)

// Penalty weights.
const (
	restWeight     = 100.0 // (measured/ρ0 - 1)^2
	spreadWeight   = 10.0  // mean (std/ρ0)^2 over windows
	overWeight     = 10.0  // mean (max/ρ0 - 1)^2 over windows, compression only
	escapePenalty  = 1.0   // per escaped particle fraction
	unstableWeight = 1e3   // scaled by the fraction of steps not reached
)

// Result describes one evaluation.
type Result struct {
	Fitness         float64
	MeasuredDensity float64
	Steps           int
	Unstable        bool
}

// FitnessEvaluator runs headless settling runs and scores them.
type FitnessEvaluator struct {
	params     *ParamVector
	baseConfig *config.Config
	steps      int

	mu   sync.Mutex
	last Result
}

// NewFitnessEvaluator creates an evaluator that runs steps steps per call.
func NewFitnessEvaluator(params *ParamVector, steps int, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		baseConfig: baseCfg,
		steps:      steps,
	}
}

// Last returns the result of the most recent evaluation.
func (fe *FitnessEvaluator) Last() Result {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Evaluate computes fitness for raw parameter values (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	r := fe.run(cfg)

	fe.mu.Lock()
	fe.last = r
	fe.mu.Unlock()
	return r.Fitness
}

// run scores a config: how close the lattice density is to the rest density,
// and how well the block holds together while it settles.
func (fe *FitnessEvaluator) run(cfg *config.Config) Result {
	measured, err := simulation.MeasureRestDensity(cfg)
	if err != nil {
		return Result{Fitness: math.Inf(1), Unstable: true}
	}
	rho0 := cfg.Fluid.RestDensity
	restErr := measured/rho0 - 1

	var windows []telemetry.WindowStats
	sim, err := simulation.NewWithOptions(cfg, simulation.Options{
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		return Result{Fitness: math.Inf(1), MeasuredDensity: measured, Unstable: true}
	}
	defer sim.Close()

	r := Result{MeasuredDensity: measured}
	for sim.Steps() < fe.steps {
		if err := sim.Step(cfg.Physics.DT); err != nil {
			r.Unstable = errors.Is(err, simulation.ErrUnstable)
			break
		}
	}
	r.Steps = sim.Steps()

	r.Fitness = restWeight*restErr*restErr + scoreWindows(windows, rho0)
	if r.Steps < fe.steps {
		r.Fitness += unstableWeight * float64(fe.steps-r.Steps) / float64(fe.steps)
	}
	return r
}

// scoreWindows penalises density spread, compression and escaped particles
// averaged over the collected windows.
func scoreWindows(windows []telemetry.WindowStats, rho0 float64) float64 {
	if len(windows) == 0 {
		return 0
	}
	var spread, over, escaped float64
	for _, w := range windows {
		rel := w.DensityStd / rho0
		spread += rel * rel
		if dev := w.DensityMax/rho0 - 1; dev > 0 {
			over += dev * dev
		}
		if w.FluidCount > 0 {
			escaped += float64(w.Escaped) / float64(w.FluidCount)
		}
	}
	n := float64(len(windows))
	return (spreadWeight*spread + overWeight*over + escapePenalty*escaped) / n
}
