package simulation

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/config"
	"github.com/pthm-cable/sph/telemetry"
)

// Open creates a simulation and, when checkpoint is not empty, restores it
// from that file. On any error the simulation is closed before returning.
func Open(cfg *config.Config, opts Options, checkpoint string) (*Simulation, error) {
	s, err := NewWithOptions(cfg, opts)
	if err != nil {
		return nil, err
	}
	if checkpoint == "" {
		return s, nil
	}

	cp, err := telemetry.LoadCheckpoint(checkpoint)
	if err == nil {
		err = s.Restore(cp)
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("restoring %s: %w", checkpoint, err)
	}
	return s, nil
}

// Checkpoint captures the resumable state of the simulation.
func (s *Simulation) Checkpoint() *telemetry.Checkpoint {
	n := s.ps.Len()
	cp := &telemetry.Checkpoint{
		Version:   telemetry.CheckpointVersion,
		Config:    s.cfg.Clone(),
		Step:      s.step,
		Time:      s.time,
		Particles: make([]telemetry.ParticleState, n),
	}
	for i := 0; i < n; i++ {
		p := s.ps.Particle(i)
		cp.Particles[i] = telemetry.ParticleState{
			Kind:        p.Kind,
			X:           p.Position.X,
			Y:           p.Position.Y,
			VelX:        p.Velocity.X,
			VelY:        p.Velocity.Y,
			RestDensity: p.RestDensity,
		}
	}
	return cp
}

// Restore rebuilds the simulation from cp and resumes at its step and time.
// Density and pressure are sensed from the restored positions. On error the
// current state is kept.
func (s *Simulation) Restore(cp *telemetry.Checkpoint) error {
	resolved, err := resolve(cp.Config)
	if err != nil {
		return err
	}

	layout := buildParticleSet(resolved)
	if layout.Len() != len(cp.Particles) {
		return fmt.Errorf("%w: %d particles, config builds %d", ErrCheckpointMismatch, len(cp.Particles), layout.Len())
	}
	for i, p := range cp.Particles {
		if p.Kind != layout.Kind[i] {
			return fmt.Errorf("%w: particle %d is %s, config builds %s", ErrCheckpointMismatch, i, p.Kind, layout.Kind[i])
		}
	}

	s.init(resolved)
	for i, p := range cp.Particles {
		s.ps.Pos[i] = r2.Vec{X: p.X, Y: p.Y}
		s.ps.Vel[i] = r2.Vec{X: p.VelX, Y: p.VelY}
		s.ps.RestDensity[i] = p.RestDensity
	}
	s.step = cp.Step
	s.time = cp.Time
	s.collector.StartAt(cp.Step)

	s.updateNeighbors()
	s.computeDensity()
	s.computePressure()

	if s.frames != nil {
		s.frames.Reset()
		s.frames.Record(s.ps, s.step, s.time)
	}

	slog.Info("simulation restored", "step", s.step, "time", s.time, "particles", len(cp.Particles))
	return nil
}
