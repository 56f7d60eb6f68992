package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/components"
)

// Integrate advances fluid particles in [i0, i1) by one semi-implicit Euler
// step, writing into posOut/velOut and leaving ps untouched:
//
//	v' = v + a·dt
//	x' = x + v'·dt
//
// maxSpeed > 0 clamps |v'| before the position update. Boundary slots are
// not written.
func Integrate(ps *components.ParticleSet, acc []r2.Vec, dt, maxSpeed float64, posOut, velOut []r2.Vec, i0, i1 int) {
	for i := i0; i < i1; i++ {
		if ps.Kind[i] == components.KindBoundary {
			continue
		}
		v := r2.Add(ps.Vel[i], r2.Scale(dt, acc[i]))
		v = clampSpeed(v, maxSpeed)
		velOut[i] = v
		posOut[i] = r2.Add(ps.Pos[i], r2.Scale(dt, v))
	}
}

// FirstNonFinite returns the first index in [0, n) whose position or velocity
// is NaN or infinite, or -1.
func FirstNonFinite(pos, vel []r2.Vec, n int) int {
	for i := 0; i < n; i++ {
		if !isFiniteVec(pos[i]) || !isFiniteVec(vel[i]) {
			return i
		}
	}
	return -1
}
