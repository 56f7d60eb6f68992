// Package systems provides the per-step SPH pipeline stages.
package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Neighbor holds a nearby particle with precomputed spatial data.
// This avoids recomputing the separation in the density and force passes.
type Neighbor struct {
	J      int32
	D      r2.Vec  // xi - xj
	DistSq float64 // Squared distance
}

// SpatialGrid provides neighbor lookups using a uniform cell grid over the
// domain. Positions outside the domain are clamped into the edge cells, so
// queries stay exact for particles that drift past the bounds.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	min      r2.Vec
	cells    [][]int32 // flat grid of particle indices
}

// NewSpatialGrid creates a spatial grid covering [min, max].
func NewSpatialGrid(min, max r2.Vec, cellSize float64) *SpatialGrid {
	cols := int((max.X-min.X)/cellSize) + 1
	rows := int((max.Y-min.Y)/cellSize) + 1

	cells := make([][]int32, cols*rows)
	for i := range cells {
		cells[i] = make([]int32, 0, 8) // pre-allocate small capacity
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		min:      min,
		cells:    cells,
	}
}

// Clear removes all particles from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds particle i to the grid at the given position.
func (g *SpatialGrid) Insert(i int32, p r2.Vec) {
	col, row := g.cellCoords(p)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], i)
}

// Rebuild clears the grid and inserts every position.
func (g *SpatialGrid) Rebuild(pos []r2.Vec) {
	g.Clear()
	for i, p := range pos {
		g.Insert(int32(i), p)
	}
}

// QueryRadiusInto finds particles within radius of pos[i] (including i itself)
// and appends them to dst. Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, pos []r2.Vec, i int, radius float64) []Neighbor {
	cellRadius := int(math.Ceil(radius / g.cellSize))
	centerCol, centerRow := g.cellCoords(pos[i])
	radiusSq := radius * radius
	xi := pos[i]

	for dr := -cellRadius; dr <= cellRadius; dr++ {
		row := centerRow + dr
		if row < 0 || row >= g.rows {
			continue
		}
		for dc := -cellRadius; dc <= cellRadius; dc++ {
			col := centerCol + dc
			if col < 0 || col >= g.cols {
				continue
			}

			for _, j := range g.cells[row*g.cols+col] {
				d := r2.Sub(xi, pos[j])
				distSq := r2.Norm2(d)
				if distSq <= radiusSq {
					dst = append(dst, Neighbor{J: j, D: d, DistSq: distSq})
				}
			}
		}
	}

	return dst
}

// BruteForceInto is the exhaustive O(N) counterpart of QueryRadiusInto.
func BruteForceInto(dst []Neighbor, pos []r2.Vec, i int, radius float64) []Neighbor {
	radiusSq := radius * radius
	xi := pos[i]
	for j := range pos {
		d := r2.Sub(xi, pos[j])
		distSq := r2.Norm2(d)
		if distSq <= radiusSq {
			dst = append(dst, Neighbor{J: int32(j), D: d, DistSq: distSq})
		}
	}
	return dst
}

// cellCoords returns the clamped cell column and row for a position.
func (g *SpatialGrid) cellCoords(p r2.Vec) (col, row int) {
	col = clampIndex((p.X-g.min.X)/g.cellSize, g.cols)
	row = clampIndex((p.Y-g.min.Y)/g.cellSize, g.rows)
	return col, row
}

func clampIndex(f float64, n int) int {
	if !(f >= 0) { // also catches NaN
		return 0
	}
	if f >= float64(n-1) {
		return n - 1
	}
	return int(f)
}
