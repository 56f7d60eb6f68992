package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/sph/config"
	"github.com/pthm-cable/sph/telemetry"
)

func TestParamVectorRoundTripsDefaults(t *testing.T) {
	cfg := config.Default()
	pv := NewParamVector(cfg)

	back := pv.Denormalize(pv.Normalize(pv.DefaultVector()))
	for i, v := range pv.DefaultVector() {
		if math.Abs(back[i]-v) > 1e-12 {
			t.Errorf("%s: got %g, want %g", pv.Specs[i].Name, back[i], v)
		}
	}
}

func TestApplyToConfigClampsAndScales(t *testing.T) {
	cfg := config.Default()
	pv := NewParamVector(cfg)
	s := cfg.Fluid.Spacing

	pv.ApplyToConfig(cfg, []float64{10, 1.1, -5})

	if want := 2.5 * s; math.Abs(cfg.Kernel.H-want) > 1e-12 {
		t.Errorf("H = %g, want %g (clamped)", cfg.Kernel.H, want)
	}
	if want := 1.1 * cfg.Fluid.RestDensity * s * s; math.Abs(cfg.Fluid.Mass-want) > 1e-12 {
		t.Errorf("Mass = %g, want %g", cfg.Fluid.Mass, want)
	}
	if cfg.Fluid.Stiffness != 1 {
		t.Errorf("Stiffness = %g, want 1 (clamped)", cfg.Fluid.Stiffness)
	}
}

func TestScoreWindowsPenalisesCompressionOnly(t *testing.T) {
	under := []telemetry.WindowStats{{FluidCount: 10, DensityMax: 990}}
	over := []telemetry.WindowStats{{FluidCount: 10, DensityMax: 1010}}

	if got := scoreWindows(under, 1000); got != 0 {
		t.Errorf("under-dense score = %g, want 0", got)
	}
	if got, want := scoreWindows(over, 1000), overWeight*0.01*0.01; math.Abs(got-want) > 1e-12 {
		t.Errorf("over-dense score = %g, want %g", got, want)
	}
	if got := scoreWindows(nil, 1000); got != 0 {
		t.Errorf("empty score = %g", got)
	}
}

func TestRunScoresDefaultConfig(t *testing.T) {
	cfg := config.Default()
	rho0 := cfg.Fluid.RestDensity

	pv := NewParamVector(cfg)
	fe := NewFitnessEvaluator(pv, 20, cfg)
	r := fe.run(cfg.Clone())
	if r.Unstable || r.Steps != 20 {
		t.Fatalf("default config did not run cleanly: %+v", r)
	}
	if math.IsInf(r.Fitness, 0) || r.Fitness < 0 {
		t.Errorf("fitness = %g", r.Fitness)
	}
	if math.Abs(r.MeasuredDensity/rho0-1) > 0.01 {
		t.Errorf("measured density %g far from %g", r.MeasuredDensity, rho0)
	}
}
