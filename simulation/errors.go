package simulation

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTimeStep is returned for a negative or non-finite dt.
	ErrInvalidTimeStep = errors.New("invalid time step")

	// ErrUnstable marks a step whose integration produced a non-finite
	// position or velocity. The step is not committed.
	ErrUnstable = errors.New("non-finite particle state")

	// ErrHalted is returned by Step after a fatal error until Reset is called.
	ErrHalted = errors.New("simulation halted")

	// ErrCheckpointMismatch is returned by Restore when the stored particles
	// do not match the layout their config builds.
	ErrCheckpointMismatch = errors.New("checkpoint does not match config layout")
)

// StepError wraps a fatal error with the step it occurred on.
type StepError struct {
	Step     int     // Step that failed (1-based)
	Time     float64 // Simulation time the step would have reached
	Particle int     // First offending particle, or -1
	Wrapped  error
}

func (e *StepError) Error() string {
	if e.Particle >= 0 {
		return fmt.Sprintf("step %d (t=%.6g): particle %d: %v", e.Step, e.Time, e.Particle, e.Wrapped)
	}
	return fmt.Sprintf("step %d (t=%.6g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
