package main

import (
	"github.com/pthm-cable/sph/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the calibration parameters, defaulted from cfg.
// Mass is expressed as a multiple of rest_density * spacing^2 and h as a
// multiple of spacing so the bounds hold for any lattice.
func NewParamVector(cfg *config.Config) *ParamVector {
	s := cfg.Fluid.Spacing
	massScale := 1.0
	if cfg.Fluid.Mass > 0 {
		massScale = cfg.Fluid.Mass / (cfg.Fluid.RestDensity * s * s)
	}
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "h_ratio", Path: "kernel.h", Min: 1.0, Max: 2.5, Default: cfg.Kernel.H / s},
			{Name: "mass_scale", Path: "fluid.mass", Min: 0.8, Max: 1.2, Default: massScale},
			{Name: "stiffness", Path: "fluid.stiffness", Min: 1, Max: 2000, Default: cfg.Fluid.Stiffness},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	s := cfg.Fluid.Spacing

	cfg.Kernel.H = clamped[0] * s
	cfg.Fluid.Mass = clamped[1] * cfg.Fluid.RestDensity * s * s
	cfg.Fluid.Stiffness = clamped[2]
}
