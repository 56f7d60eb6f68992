package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/components"
)

// squareLattice builds an n x n fluid lattice centred on the origin.
func squareLattice(n int, spacing, mass, rest float64) *components.ParticleSet {
	ps := components.NewParticleSet(n * n)
	off := float64(n-1) / 2
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			ps.AddFluid(r2.Vec{
				X: (float64(col) - off) * spacing,
				Y: (float64(row) - off) * spacing,
			}, mass, rest)
		}
	}
	return ps
}

// bruteNeighbors builds exhaustive neighbor lists for every particle.
func bruteNeighbors(ps *components.ParticleSet, radius float64) [][]Neighbor {
	nbrs := make([][]Neighbor, ps.Len())
	for i := range nbrs {
		nbrs[i] = BruteForceInto(nil, ps.Pos, i, radius)
	}
	return nbrs
}

// centerIndex returns the index of the particle closest to the origin.
func centerIndex(ps *components.ParticleSet) int {
	best, bestD := 0, r2.Norm2(ps.Pos[0])
	for i, p := range ps.Pos {
		if d := r2.Norm2(p); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}
