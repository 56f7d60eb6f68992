package systems

import "github.com/pthm-cable/sph/components"

// ComputeDensity writes ρi = Σj mj·W(xi - xj) into out for particles [i0, i1).
// Every particle, fluid or boundary, gets a density; nbrs[i] must include i itself.
func ComputeDensity(ps *components.ParticleSet, nbrs [][]Neighbor, k Kernel, out []float64, i0, i1 int) {
	mass := ps.Mass
	for i := i0; i < i1; i++ {
		var rho float64
		for _, n := range nbrs[i] {
			rho += mass[n.J] * k.WeightDistSq(n.DistSq)
		}
		out[i] = rho
	}
}
