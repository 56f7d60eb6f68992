package simulation

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/components"
	"github.com/pthm-cable/sph/config"
	"github.com/pthm-cable/sph/systems"
)

// buildParticleSet lays out the fluid lattice and the boundary walls for a
// resolved config. Densities are left at zero until sensed.
func buildParticleSet(cfg *config.Config) *components.ParticleSet {
	sites := boundarySites(cfg)
	ps := components.NewParticleSet(cfg.Derived.FluidCount + len(sites))

	spawnFluidBlock(ps, cfg)

	bs := cfg.Derived.BoundarySpacing
	boundaryMass := cfg.Fluid.Mass
	if boundaryMass == 0 {
		boundaryMass = cfg.Fluid.RestDensity * bs * bs
	}
	for _, p := range sites {
		ps.AddBoundary(p, boundaryMass)
	}
	return ps
}

// spawnFluidBlock adds the Cols x Rows lattice, row by row from the origin.
func spawnFluidBlock(ps *components.ParticleSet, cfg *config.Config) {
	origin := cfg.Fluid.Origin.Vec()
	s := cfg.Fluid.Spacing
	for row := 0; row < cfg.Fluid.Rows; row++ {
		for col := 0; col < cfg.Fluid.Cols; col++ {
			p := r2.Add(origin, r2.Vec{X: float64(col) * s, Y: float64(row) * s})
			ps.AddFluid(p, cfg.Derived.ParticleMass, cfg.Fluid.RestDensity)
		}
	}
}

// boundarySites returns Layers rings of wall particles laid inward from the
// domain edges. The lattice step is the boundary spacing adjusted so the
// corners land exactly on the domain bounds.
func boundarySites(cfg *config.Config) []r2.Vec {
	layers := cfg.Boundary.Layers
	if layers == 0 {
		return nil
	}

	lo, hi := cfg.Domain.Min.Vec(), cfg.Domain.Max.Vec()
	bs := cfg.Derived.BoundarySpacing
	nx := max(1, int(math.Round((hi.X-lo.X)/bs)))
	ny := max(1, int(math.Round((hi.Y-lo.Y)/bs)))
	stepX := (hi.X - lo.X) / float64(nx)
	stepY := (hi.Y - lo.Y) / float64(ny)

	var sites []r2.Vec
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			if i >= layers && i <= nx-layers && j >= layers && j <= ny-layers {
				continue
			}
			sites = append(sites, r2.Vec{X: lo.X + float64(i)*stepX, Y: lo.Y + float64(j)*stepY})
		}
	}
	return sites
}

// senseDensity fills ps.Density by exhaustive summation.
func senseDensity(ps *components.ParticleSet, k systems.Kernel) {
	nbrs := make([][]systems.Neighbor, ps.Len())
	for i := range nbrs {
		nbrs[i] = systems.BruteForceInto(nil, ps.Pos, i, k.Radius())
	}
	systems.ComputeDensity(ps, nbrs, k, ps.Density, 0, ps.Len())
}

// assignRestDensity sets each particle's reference density. Boundary
// particles always take their sensed density, so a wall is at zero pressure
// until fluid approaches it.
func assignRestDensity(ps *components.ParticleSet, cfg *config.Config) {
	measured := cfg.Fluid.RestDensityMode == config.RestDensityMeasured
	for i := 0; i < ps.Len(); i++ {
		switch {
		case ps.IsBoundary(i):
			ps.RestDensity[i] = ps.Density[i]
		case measured:
			ps.RestDensity[i] = ps.Density[i]
		default:
			ps.RestDensity[i] = cfg.Fluid.RestDensity
		}
	}
}

// MeasureRestDensity validates cfg, builds its initial particle layout and
// returns the density sensed at the fluid particle nearest the block centre.
// Use it to set Fluid.RestDensity so the initial lattice sits at rest.
func MeasureRestDensity(cfg *config.Config) (float64, error) {
	cfg = cfg.Clone()
	if err := cfg.Resolve(); err != nil {
		return 0, err
	}

	k := systems.NewKernel(cfg.Kernel.H, cfg.Kernel.Cutoff)
	ps := buildParticleSet(cfg)
	senseDensity(ps, k)

	lo, hi := cfg.FluidExtent()
	centre := r2.Scale(0.5, r2.Add(lo, hi))
	best, bestDist := 0, math.Inf(1)
	for i := 0; i < ps.NumFluid(); i++ {
		if d := r2.Norm2(r2.Sub(ps.Pos[i], centre)); d < bestDist {
			best, bestDist = i, d
		}
	}
	return ps.Density[best], nil
}
