package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Kernel is the 2D Gaussian smoothing kernel
//
//	W(d, h) = exp(-|d|²/h²) / (π h²)
//
// truncated to zero beyond Radius(). The same truncation applies to the
// gradient so density and force sums see identical neighbor sets.
type Kernel struct {
	invH2   float64
	norm    float64 // 1 / (π h²)
	radius  float64
	radius2 float64
}

// NewKernel creates a kernel with smoothing length h and support radius
// cutoff*h.
func NewKernel(h, cutoff float64) Kernel {
	r := h * cutoff
	return Kernel{
		invH2:   1 / (h * h),
		norm:    1 / (math.Pi * h * h),
		radius:  r,
		radius2: r * r,
	}
}

// Radius returns the support radius beyond which the kernel is zero.
func (k Kernel) Radius() float64 { return k.radius }

// Weight returns W(d, h).
func (k Kernel) Weight(d r2.Vec) float64 {
	return k.WeightDistSq(r2.Norm2(d))
}

// WeightDistSq returns W for a precomputed squared distance.
func (k Kernel) WeightDistSq(distSq float64) float64 {
	if distSq > k.radius2 {
		return 0
	}
	return k.norm * math.Exp(-distSq*k.invH2)
}

// Gradient returns ∇W with respect to d = xi - xj:
//
//	∇W = -2 d / h² · W
//
// It points back toward xj (decreasing weight) and vanishes at d = 0.
func (k Kernel) Gradient(d r2.Vec) r2.Vec {
	return k.GradientDistSq(d, r2.Norm2(d))
}

// GradientDistSq is Gradient with a precomputed squared distance.
func (k Kernel) GradientDistSq(d r2.Vec, distSq float64) r2.Vec {
	w := k.WeightDistSq(distSq)
	if w == 0 {
		return r2.Vec{}
	}
	return r2.Scale(-2*k.invH2*w, d)
}
