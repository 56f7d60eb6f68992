// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Rest density modes.
const (
	RestDensityUniform  = "uniform"
	RestDensityMeasured = "measured"
)

// Neighbor search strategies.
const (
	NeighborGrid  = "grid"
	NeighborBrute = "brute"
)

// Vec2 is a 2D vector written as [x, y] in YAML.
type Vec2 [2]float64

// Vec converts to a gonum vector.
func (v Vec2) Vec() r2.Vec {
	return r2.Vec{X: v[0], Y: v[1]}
}

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Domain    DomainConfig    `yaml:"domain"`
	Kernel    KernelConfig    `yaml:"kernel"`
	Fluid     FluidConfig     `yaml:"fluid"`
	Pressure  PressureConfig  `yaml:"pressure"`
	Boundary  BoundaryConfig  `yaml:"boundary"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// DomainConfig holds the axis-aligned simulation bounds.
type DomainConfig struct {
	Min Vec2 `yaml:"min"`
	Max Vec2 `yaml:"max"`
}

// KernelConfig holds smoothing kernel parameters.
type KernelConfig struct {
	H      float64 `yaml:"h"`      // Smoothing length
	Cutoff float64 `yaml:"cutoff"` // Support radius in multiples of H
}

// FluidConfig describes the initial fluid block and its material.
type FluidConfig struct {
	Origin          Vec2    `yaml:"origin"` // Lower-left lattice site
	Cols            int     `yaml:"cols"`
	Rows            int     `yaml:"rows"`
	Spacing         float64 `yaml:"spacing"`
	Mass            float64 `yaml:"mass"` // 0 = RestDensity * Spacing^2
	RestDensity     float64 `yaml:"rest_density"`
	Stiffness       float64 `yaml:"stiffness"`
	RestDensityMode string  `yaml:"rest_density_mode"`
}

// PressureConfig holds equation-of-state policy.
type PressureConfig struct {
	ClampNegative bool `yaml:"clamp_negative"` // Under-dense regions exert no pull
}

// BoundaryConfig describes the static wall layer lining the domain.
type BoundaryConfig struct {
	Layers  int     `yaml:"layers"`
	Spacing float64 `yaml:"spacing"` // 0 = fluid spacing
}

// PhysicsConfig holds integration parameters.
type PhysicsConfig struct {
	Gravity        Vec2    `yaml:"gravity"`
	DT             float64 `yaml:"dt"`
	MaxSpeed       float64 `yaml:"max_speed"` // 0 = unclamped
	NeighborSearch string  `yaml:"neighbor_search"`
	Workers        int     `yaml:"workers"` // 0 = GOMAXPROCS
}

// TelemetryConfig holds telemetry and frame recording parameters.
type TelemetryConfig struct {
	WindowSteps int `yaml:"window_steps"`
	FrameEvery  int `yaml:"frame_every"`
	MaxFrames   int `yaml:"max_frames"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ParticleMass    float64 // Fluid.Mass, or RestDensity*Spacing^2 when unset
	CutoffRadius    float64 // Kernel.H * Kernel.Cutoff
	BoundarySpacing float64 // Boundary.Spacing, or Fluid.Spacing when unset
	FluidCount      int     // Fluid.Cols * Fluid.Rows
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults, resolved and validated.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve computes derived values and validates the result.
// Call it after building or editing a Config by hand.
func (c *Config) Resolve() error {
	c.computeDerived()
	return c.Validate()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ParticleMass = c.Fluid.Mass
	if c.Derived.ParticleMass == 0 {
		c.Derived.ParticleMass = c.Fluid.RestDensity * c.Fluid.Spacing * c.Fluid.Spacing
	}
	c.Derived.CutoffRadius = c.Kernel.H * c.Kernel.Cutoff
	c.Derived.BoundarySpacing = c.Boundary.Spacing
	if c.Derived.BoundarySpacing == 0 {
		c.Derived.BoundarySpacing = c.Fluid.Spacing
	}
	c.Derived.FluidCount = c.Fluid.Cols * c.Fluid.Rows
}

// Validate checks every rule and reports all violations at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	finite := func(vs ...float64) bool {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
		return true
	}

	check(finite(c.Kernel.H, c.Kernel.Cutoff, c.Fluid.Spacing, c.Fluid.Mass, c.Fluid.RestDensity,
		c.Fluid.Stiffness, c.Boundary.Spacing, c.Physics.DT, c.Physics.MaxSpeed,
		c.Physics.Gravity[0], c.Physics.Gravity[1], c.Fluid.Origin[0], c.Fluid.Origin[1],
		c.Domain.Min[0], c.Domain.Min[1], c.Domain.Max[0], c.Domain.Max[1]),
		"non-finite parameter")

	check(c.Kernel.H > 0, "kernel.h must be positive, got %g", c.Kernel.H)
	check(c.Kernel.Cutoff > 0, "kernel.cutoff must be positive, got %g", c.Kernel.Cutoff)

	check(c.Fluid.Cols > 0 && c.Fluid.Rows > 0, "fluid block is empty (%dx%d)", c.Fluid.Cols, c.Fluid.Rows)
	check(c.Fluid.Spacing > 0, "fluid.spacing must be positive, got %g", c.Fluid.Spacing)
	check(c.Fluid.Mass >= 0, "fluid.mass must not be negative, got %g", c.Fluid.Mass)
	check(c.Fluid.RestDensity > 0, "fluid.rest_density must be positive, got %g", c.Fluid.RestDensity)
	check(c.Fluid.Stiffness >= 0, "fluid.stiffness must not be negative, got %g", c.Fluid.Stiffness)
	check(c.Fluid.RestDensityMode == RestDensityUniform || c.Fluid.RestDensityMode == RestDensityMeasured,
		"fluid.rest_density_mode must be %q or %q, got %q", RestDensityUniform, RestDensityMeasured, c.Fluid.RestDensityMode)
	check(c.Derived.ParticleMass > 0, "particle mass must be positive, got %g", c.Derived.ParticleMass)

	check(c.Domain.Max[0] > c.Domain.Min[0] && c.Domain.Max[1] > c.Domain.Min[1],
		"domain.max %v must exceed domain.min %v", c.Domain.Max, c.Domain.Min)

	check(c.Boundary.Layers >= 0, "boundary.layers must not be negative, got %d", c.Boundary.Layers)
	check(c.Boundary.Spacing >= 0, "boundary.spacing must not be negative, got %g", c.Boundary.Spacing)

	check(c.Physics.DT > 0, "physics.dt must be positive, got %g", c.Physics.DT)
	check(c.Physics.MaxSpeed >= 0, "physics.max_speed must not be negative, got %g", c.Physics.MaxSpeed)
	check(c.Physics.NeighborSearch == NeighborGrid || c.Physics.NeighborSearch == NeighborBrute,
		"physics.neighbor_search must be %q or %q, got %q", NeighborGrid, NeighborBrute, c.Physics.NeighborSearch)
	check(c.Physics.Workers >= 0, "physics.workers must not be negative, got %d", c.Physics.Workers)

	if len(errs) == 0 {
		// Fluid must start inside the band left free by the boundary layers.
		inset := float64(c.Boundary.Layers) * c.Derived.BoundarySpacing
		lo, hi := c.FluidExtent()
		const eps = 1e-9
		check(lo.X >= c.Domain.Min[0]+inset-eps && lo.Y >= c.Domain.Min[1]+inset-eps &&
			hi.X <= c.Domain.Max[0]-inset+eps && hi.Y <= c.Domain.Max[1]-inset+eps,
			"fluid block [%v, %v] does not fit inside the boundary layers", lo, hi)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// FluidExtent returns the lower-left and upper-right lattice sites of the fluid block.
func (c *Config) FluidExtent() (lo, hi r2.Vec) {
	lo = c.Fluid.Origin.Vec()
	hi = r2.Add(lo, r2.Vec{
		X: float64(c.Fluid.Cols-1) * c.Fluid.Spacing,
		Y: float64(c.Fluid.Rows-1) * c.Fluid.Spacing,
	})
	return lo, hi
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
