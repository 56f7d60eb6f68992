package telemetry

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/components"
)

// Collector accumulates per-step events within windows and produces WindowStats.
type Collector struct {
	windowSteps int
	domainMin   r2.Vec
	domainMax   r2.Vec

	// Current window tracking
	windowStartStep int

	// Event counters for current window
	peakSpeed  float64
	degenerate int
}

// NewCollector creates a new stats collector.
// windowSteps: number of steps per window
// min, max: domain bounds used to count escaped particles
func NewCollector(windowSteps int, min, max r2.Vec) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{
		windowSteps: windowSteps,
		domainMin:   min,
		domainMax:   max,
	}
}

// RecordStep records the events of one step.
func (c *Collector) RecordStep(degenerate int, maxSpeed float64) {
	c.degenerate += degenerate
	if maxSpeed > c.peakSpeed {
		c.peakSpeed = maxSpeed
	}
}

// StartAt discards the current window and starts a new one at step.
func (c *Collector) StartAt(step int) {
	c.windowStartStep = step
	c.peakSpeed = 0
	c.degenerate = 0
}

// ShouldFlush returns true if enough steps have passed to flush the window.
func (c *Collector) ShouldFlush(currentStep int) bool {
	return currentStep-c.windowStartStep >= c.windowSteps
}

// Flush produces a WindowStats from the end-of-window snapshot and resets
// counters for the next window.
func (c *Collector) Flush(snap *components.Snapshot) WindowStats {
	ps := Sample(snap, c.domainMin, c.domainMax)

	peak := c.peakSpeed
	if ps.MaxSpeed > peak {
		peak = ps.MaxSpeed
	}

	stats := WindowStats{
		WindowStartStep:   c.windowStartStep,
		WindowEndStep:     snap.Step,
		SimTimeSec:        snap.Time,
		FluidCount:        ps.FluidCount,
		KineticEnergy:     ps.KineticEnergy,
		MomentumX:         ps.Momentum.X,
		MomentumY:         ps.Momentum.Y,
		MaxSpeed:          ps.MaxSpeed,
		PeakSpeed:         peak,
		DensityMean:       ps.DensityMean,
		DensityStd:        ps.DensityStd,
		DensityMin:        ps.DensityMin,
		DensityMax:        ps.DensityMax,
		DensityP90:        ps.DensityP90,
		PressureMax:       ps.PressureMax,
		Escaped:           ps.Escaped,
		DegenerateDensity: c.degenerate,
	}

	c.windowStartStep = snap.Step
	c.peakSpeed = 0
	c.degenerate = 0

	return stats
}
