package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.Kernel.H <= 0 {
		t.Errorf("expected positive default h, got %g", cfg.Kernel.H)
	}
	if cfg.Fluid.Cols != 20 || cfg.Fluid.Rows != 20 {
		t.Errorf("expected 20x20 default block, got %dx%d", cfg.Fluid.Cols, cfg.Fluid.Rows)
	}

	// Mass is derived from rest density and spacing when left at zero
	want := cfg.Fluid.RestDensity * cfg.Fluid.Spacing * cfg.Fluid.Spacing
	if cfg.Derived.ParticleMass != want {
		t.Errorf("derived mass = %g, want %g", cfg.Derived.ParticleMass, want)
	}
	if cfg.Derived.BoundarySpacing != cfg.Fluid.Spacing {
		t.Errorf("boundary spacing should default to fluid spacing, got %g", cfg.Derived.BoundarySpacing)
	}
	if cfg.Derived.CutoffRadius != cfg.Kernel.H*cfg.Kernel.Cutoff {
		t.Errorf("cutoff radius = %g", cfg.Derived.CutoffRadius)
	}
}

func TestLoadOverridesOnlyPresentFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := "fluid:\n  stiffness: 1000\nphysics:\n  gravity: [0, -1]\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Fluid.Stiffness != 1000 {
		t.Errorf("stiffness = %g, want 1000", cfg.Fluid.Stiffness)
	}
	if cfg.Physics.Gravity != (Vec2{0, -1}) {
		t.Errorf("gravity = %v, want [0 -1]", cfg.Physics.Gravity)
	}
	// Untouched fields keep their defaults
	if cfg.Fluid.RestDensity != 1000 {
		t.Errorf("rest density should keep default, got %g", cfg.Fluid.RestDensity)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"zero h", func(c *Config) { c.Kernel.H = 0 }, "kernel.h"},
		{"negative h", func(c *Config) { c.Kernel.H = -1 }, "kernel.h"},
		{"zero dt", func(c *Config) { c.Physics.DT = 0 }, "physics.dt"},
		{"negative mass", func(c *Config) { c.Fluid.Mass = -0.1 }, "fluid.mass"},
		{"negative rest density", func(c *Config) { c.Fluid.RestDensity = -1 }, "rest_density"},
		{"negative stiffness", func(c *Config) { c.Fluid.Stiffness = -5 }, "stiffness"},
		{"empty block", func(c *Config) { c.Fluid.Cols = 0 }, "empty"},
		{"bad mode", func(c *Config) { c.Fluid.RestDensityMode = "adaptive" }, "rest_density_mode"},
		{"bad search", func(c *Config) { c.Physics.NeighborSearch = "octree" }, "neighbor_search"},
		{"inverted domain", func(c *Config) { c.Domain.Max = c.Domain.Min }, "domain"},
		{"fluid outside", func(c *Config) { c.Fluid.Origin = Vec2{-0.499, 0.2} }, "boundary layers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Resolve()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error should wrap ErrInvalidConfig: %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateAllowsZeroStiffness(t *testing.T) {
	cfg := Default()
	cfg.Fluid.Stiffness = 0
	if err := cfg.Resolve(); err != nil {
		t.Fatalf("zero stiffness should be valid: %v", err)
	}
}

func TestValidateReportsEveryViolation(t *testing.T) {
	cfg := Default()
	cfg.Kernel.H = 0
	cfg.Physics.DT = -1
	err := cfg.Resolve()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "kernel.h") || !strings.Contains(err.Error(), "physics.dt") {
		t.Errorf("expected both violations reported, got %q", err)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Fluid.Stiffness = 321
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Fluid.Stiffness != 321 {
		t.Errorf("stiffness = %g after reload, want 321", loaded.Fluid.Stiffness)
	}
}

func TestFluidExtent(t *testing.T) {
	cfg := Default()
	cfg.Fluid.Origin = Vec2{0.1, 0.2}
	cfg.Fluid.Cols = 3
	cfg.Fluid.Rows = 2
	cfg.Fluid.Spacing = 0.05

	lo, hi := cfg.FluidExtent()
	if lo.X != 0.1 || lo.Y != 0.2 {
		t.Errorf("lo = %v", lo)
	}
	if diff := hi.X - 0.2; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("hi.X = %g, want 0.2", hi.X)
	}
	if diff := hi.Y - 0.25; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("hi.Y = %g, want 0.25", hi.Y)
	}
}
