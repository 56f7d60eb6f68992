package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/components"
)

// PairPressureForce returns the symmetric pressure force exerted on i by j:
//
//	Fij = -mi·mj·(pi/ρi² + pj/ρj²)·∇W(xi - xj)
//
// ti and tj are the p/ρ² terms. Swapping i and j negates grad, so Fji = -Fij.
func PairPressureForce(mi, mj, ti, tj float64, grad r2.Vec) r2.Vec {
	return r2.Scale(-mi*mj*(ti+tj), grad)
}

// PressureForce sums the pressure forces on particle i over its neighbors.
func PressureForce(ps *components.ParticleSet, nbrs []Neighbor, k Kernel, terms []float64, i int) r2.Vec {
	mi, ti := ps.Mass[i], terms[i]
	var f r2.Vec
	for _, n := range nbrs {
		if int(n.J) == i {
			continue
		}
		grad := k.GradientDistSq(n.D, n.DistSq)
		f = r2.Add(f, PairPressureForce(mi, ps.Mass[n.J], ti, terms[n.J], grad))
	}
	return f
}

// ComputeAccelerations writes ai = (Fi_pressure + mi·g)/mi for fluid
// particles in [i0, i1). Boundary particles get zero.
// Boundary neighbors push fluid through the same pressure term, which is
// what keeps fluid inside the walls.
func ComputeAccelerations(ps *components.ParticleSet, nbrs [][]Neighbor, k Kernel, terms []float64, gravity r2.Vec, out []r2.Vec, i0, i1 int) {
	for i := i0; i < i1; i++ {
		if ps.Kind[i] == components.KindBoundary {
			out[i] = r2.Vec{}
			continue
		}
		f := PressureForce(ps, nbrs[i], k, terms, i)
		out[i] = r2.Add(r2.Scale(1/ps.Mass[i], f), gravity)
	}
}
