// Package components defines the particle data shared by the pipeline stages.
package components

import "gonum.org/v1/gonum/spatial/r2"

// Kind tags a particle as fluid or static boundary.
type Kind uint8

const (
	KindFluid    Kind = iota // Integrated, feels gravity
	KindBoundary             // Fixed; only a density/pressure source
)

// String returns a lowercase name for logs and CSV output.
func (k Kind) String() string {
	switch k {
	case KindFluid:
		return "fluid"
	case KindBoundary:
		return "boundary"
	default:
		return "unknown"
	}
}

// Particle is a value copy of one particle's state.
type Particle struct {
	Kind        Kind
	Position    r2.Vec
	Velocity    r2.Vec
	Mass        float64
	Density     float64
	Pressure    float64
	RestDensity float64
}

// IsBoundary reports whether the particle is a fixed wall particle.
func (p Particle) IsBoundary() bool {
	return p.Kind == KindBoundary
}

// ParticleSet stores every particle as parallel slices.
// Fluid particles occupy [0, NumFluid()), boundary particles follow.
// The cardinality and masses are fixed once construction finishes.
type ParticleSet struct {
	Kind        []Kind
	Pos         []r2.Vec
	Vel         []r2.Vec
	Mass        []float64
	Density     []float64
	Pressure    []float64
	RestDensity []float64

	numFluid int
}

// NewParticleSet allocates an empty set with room for n particles.
func NewParticleSet(n int) *ParticleSet {
	return &ParticleSet{
		Kind:        make([]Kind, 0, n),
		Pos:         make([]r2.Vec, 0, n),
		Vel:         make([]r2.Vec, 0, n),
		Mass:        make([]float64, 0, n),
		Density:     make([]float64, 0, n),
		Pressure:    make([]float64, 0, n),
		RestDensity: make([]float64, 0, n),
	}
}

// AddFluid appends a fluid particle at rest. All fluid particles must be added
// before the first boundary particle.
func (ps *ParticleSet) AddFluid(pos r2.Vec, mass, restDensity float64) int {
	if ps.numFluid != len(ps.Kind) {
		panic("components: fluid particle added after boundary particles")
	}
	ps.numFluid++
	return ps.add(KindFluid, pos, mass, restDensity)
}

// AddBoundary appends a static boundary particle.
func (ps *ParticleSet) AddBoundary(pos r2.Vec, mass float64) int {
	return ps.add(KindBoundary, pos, mass, 0)
}

func (ps *ParticleSet) add(kind Kind, pos r2.Vec, mass, restDensity float64) int {
	ps.Kind = append(ps.Kind, kind)
	ps.Pos = append(ps.Pos, pos)
	ps.Vel = append(ps.Vel, r2.Vec{})
	ps.Mass = append(ps.Mass, mass)
	ps.Density = append(ps.Density, 0)
	ps.Pressure = append(ps.Pressure, 0)
	ps.RestDensity = append(ps.RestDensity, restDensity)
	return len(ps.Kind) - 1
}

// Len returns the total particle count.
func (ps *ParticleSet) Len() int {
	return len(ps.Kind)
}

// NumFluid returns the number of fluid particles.
func (ps *ParticleSet) NumFluid() int {
	return ps.numFluid
}

// NumBoundary returns the number of boundary particles.
func (ps *ParticleSet) NumBoundary() int {
	return len(ps.Kind) - ps.numFluid
}

// IsBoundary reports whether particle i is a boundary particle.
func (ps *ParticleSet) IsBoundary(i int) bool {
	return ps.Kind[i] == KindBoundary
}

// Particle returns a copy of particle i.
func (ps *ParticleSet) Particle(i int) Particle {
	return Particle{
		Kind:        ps.Kind[i],
		Position:    ps.Pos[i],
		Velocity:    ps.Vel[i],
		Mass:        ps.Mass[i],
		Density:     ps.Density[i],
		Pressure:    ps.Pressure[i],
		RestDensity: ps.RestDensity[i],
	}
}

// Snapshot is a read-only copy of particle state for consumers outside the
// step loop. It never aliases live simulation buffers.
type Snapshot struct {
	Step     int
	Time     float64
	NumFluid int

	Kind       []Kind
	Mass       []float64
	Positions  []r2.Vec
	Velocities []r2.Vec
	Density    []float64
	Pressure   []float64
}

// Len returns the number of particles in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Positions)
}

// SnapshotInto copies the current state into dst, reusing its buffers.
func (ps *ParticleSet) SnapshotInto(dst *Snapshot) {
	dst.NumFluid = ps.numFluid
	dst.Kind = append(dst.Kind[:0], ps.Kind...)
	dst.Mass = append(dst.Mass[:0], ps.Mass...)
	dst.Positions = append(dst.Positions[:0], ps.Pos...)
	dst.Velocities = append(dst.Velocities[:0], ps.Vel...)
	dst.Density = append(dst.Density[:0], ps.Density...)
	dst.Pressure = append(dst.Pressure[:0], ps.Pressure...)
}

// CopyInto deep-copies s into dst, reusing dst's buffers.
func (s *Snapshot) CopyInto(dst *Snapshot) {
	dst.Step = s.Step
	dst.Time = s.Time
	dst.NumFluid = s.NumFluid
	dst.Kind = append(dst.Kind[:0], s.Kind...)
	dst.Mass = append(dst.Mass[:0], s.Mass...)
	dst.Positions = append(dst.Positions[:0], s.Positions...)
	dst.Velocities = append(dst.Velocities[:0], s.Velocities...)
	dst.Density = append(dst.Density[:0], s.Density...)
	dst.Pressure = append(dst.Pressure[:0], s.Pressure...)
}
