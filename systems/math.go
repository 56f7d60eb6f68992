package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// isFinite reports whether v is neither NaN nor infinite.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// isFiniteVec reports whether both components of v are finite.
func isFiniteVec(v r2.Vec) bool {
	return isFinite(v.X) && isFinite(v.Y)
}

// clampSpeed scales v down to maxSpeed if it is longer. maxSpeed <= 0 disables the clamp.
func clampSpeed(v r2.Vec, maxSpeed float64) r2.Vec {
	if maxSpeed <= 0 {
		return v
	}
	speed := r2.Norm(v)
	if speed > maxSpeed {
		return r2.Scale(maxSpeed/speed, v)
	}
	return v
}
