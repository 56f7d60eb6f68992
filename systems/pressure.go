package systems

import "gonum.org/v1/gonum/floats"

// EquationOfState returns k·(ρ - ρ0), optionally clamped at zero.
func EquationOfState(density, restDensity, stiffness float64, clampNegative bool) float64 {
	p := stiffness * (density - restDensity)
	if clampNegative && p < 0 {
		return 0
	}
	return p
}

// ComputePressure applies the equation of state to the whole density buffer.
// rest holds each particle's rest density.
func ComputePressure(density, rest []float64, stiffness float64, clampNegative bool, out []float64) {
	floats.SubTo(out, density, rest)
	floats.Scale(stiffness, out)
	if !clampNegative {
		return
	}
	for i, p := range out {
		if p < 0 {
			out[i] = 0
		}
	}
}

// PressureTerms writes p/ρ² for each particle into out. A particle with
// non-positive density contributes nothing; the number of such particles is
// returned.
func PressureTerms(pressure, density, out []float64) (degenerate int) {
	for i, rho := range density {
		if rho <= 0 || !isFinite(rho) {
			out[i] = 0
			degenerate++
			continue
		}
		out[i] = pressure[i] / (rho * rho)
	}
	return degenerate
}
