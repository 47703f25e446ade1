// Package field builds a discretized influence grid over a point set: each
// cell accumulates decayed contributions from nearby points, and the coldest
// cell is the one with the least accumulated influence. This is the
// grid-scan answer to the coverage-gap question; the continuous optimizer in
// pkg/optimizer is the other.
package field

import (
	"fmt"
	"math"

	"github.com/kass/go-coldspot/pkg/geodesy"
	"github.com/kass/go-coldspot/pkg/models"
	"github.com/kass/go-coldspot/pkg/pointset"
	"github.com/kass/go-coldspot/pkg/region"
)

// DecayKernel maps a distance in cell units to a non-negative contribution
// weight. maxCells is the influence cutoff in the same units.
type DecayKernel func(distCells, maxCells float64) float64

// KernelExponential halves a point's contribution for every whole cell of
// distance and cuts off past maxCells.
func KernelExponential(distCells, maxCells float64) float64 {
	if distCells > maxCells {
		return 0
	}
	return 1 / math.Exp2(math.Floor(distCells))
}

// KernelLinear falls off linearly from 1 at the point to 0 at maxCells.
func KernelLinear(distCells, maxCells float64) float64 {
	w := 1 - distCells/maxCells
	if w < 0 {
		return 0
	}
	return w
}

// Grid is a dense row-major 2D array of influence values. Cell (0,0) sits at
// the bottom-left of the extent; a cell's geographic footprint follows from
// the origin and the cell size in degrees.
type Grid struct {
	values   []float64
	rows     int
	cols     int
	latMin   float64
	lonMin   float64
	cellSize float64
}

// Rows returns the number of grid rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of grid columns.
func (g *Grid) Cols() int { return g.cols }

// ValueAt returns the accumulated influence of the cell.
func (g *Grid) ValueAt(row, col int) float64 {
	return g.values[row*g.cols+col]
}

// CellCenter returns the geographic center of the cell.
func (g *Grid) CellCenter(row, col int) models.Location {
	return models.Location{
		Lat: g.latMin + (float64(row)+0.5)*g.cellSize,
		Lon: g.lonMin + (float64(col)+0.5)*g.cellSize,
	}
}

// cellOf returns the row/col indices covering the location. Indices may fall
// outside the grid for locations outside the extent.
func (g *Grid) cellOf(p models.Location) (row, col int) {
	return int((p.Lat - g.latMin) / g.cellSize), int((p.Lon - g.lonMin) / g.cellSize)
}

// Field is an influence grid built by Accumulate.
type Field struct {
	Grid *Grid
}

// Accumulate builds an influence field over the point set. The grid extent is
// the set's bounding box expanded by one cell margin; influenceMeters is the
// physical radius past which a point contributes nothing. Each point only
// touches the cells inside its window, so cost is O(points × window²) rather
// than O(points × grid).
func Accumulate(points pointset.Set, cellSizeDeg float64, kernel DecayKernel, influenceMeters float64) (*Field, error) {
	if len(points) == 0 {
		return nil, pointset.ErrNoPoints
	}
	if cellSizeDeg <= 0 {
		return nil, fmt.Errorf("cell size %.6f must be positive", cellSizeDeg)
	}
	if influenceMeters <= 0 {
		return nil, fmt.Errorf("influence radius %.1f m must be positive", influenceMeters)
	}

	box := points.Bounds().Expand(cellSizeDeg)
	rows := int((box.TopRight.Lat-box.BottomLeft.Lat)/cellSizeDeg) + 1
	cols := int((box.TopRight.Lon-box.BottomLeft.Lon)/cellSizeDeg) + 1
	grid := &Grid{
		values:   make([]float64, rows*cols),
		rows:     rows,
		cols:     cols,
		latMin:   box.BottomLeft.Lat,
		lonMin:   box.BottomLeft.Lon,
		cellSize: cellSizeDeg,
	}

	for _, p := range points {
		// Influence radius in degrees at the point's own latitude. A
		// longitude cell covers less ground than a latitude cell, so column
		// offsets are compressed before the kernel sees them; the kernel
		// works in latitude-cell units on both axes.
		dLat, dLon := geodesy.MetersToDegrees(p, influenceMeters)
		maxCells := dLat / cellSizeDeg
		lonScale := dLat / dLon
		windowLat := int(math.Ceil(maxCells))
		windowLon := int(math.Ceil(dLon / cellSizeDeg))

		row, col := grid.cellOf(p)
		iLo := max(-row, -windowLat)
		iHi := min(rows-row-1, windowLat)
		jLo := max(-col, -windowLon)
		jHi := min(cols-col-1, windowLon)
		for i := iLo; i <= iHi; i++ {
			for j := jLo; j <= jHi; j++ {
				dj := float64(j) * lonScale
				dist := math.Sqrt(float64(i*i) + dj*dj)
				if w := kernel(dist, maxCells); w > 0 {
					grid.values[(row+i)*cols+col+j] += w
				}
			}
		}
	}

	return &Field{Grid: grid}, nil
}

// ColdestCell returns the cell of minimum influence whose center lies inside
// the region (nil means unconstrained). Ties break to the first cell in
// row-major scan order; that is a documented policy, not a numerical
// guarantee. ok is false when the field never accumulated any influence or
// no cell center lies inside the region.
func (f *Field) ColdestCell(r region.Region) (row, col int, ok bool) {
	g := f.Grid
	total := 0.0
	for _, v := range g.values {
		total += v
	}
	if total == 0 {
		return 0, 0, false
	}

	best := math.Inf(1)
	bestRow, bestCol := -1, -1
	for i := 0; i < g.rows; i++ {
		for j := 0; j < g.cols; j++ {
			if r != nil && !r.Contains(g.CellCenter(i, j)) {
				continue
			}
			if v := g.ValueAt(i, j); v < best {
				best = v
				bestRow, bestCol = i, j
			}
		}
	}
	if bestRow < 0 {
		return 0, 0, false
	}
	return bestRow, bestCol, true
}

// ColdestLocation is ColdestCell resolved to the cell's geographic center.
func (f *Field) ColdestLocation(r region.Region) (models.Location, bool) {
	row, col, ok := f.ColdestCell(r)
	if !ok {
		return models.Location{}, false
	}
	return f.Grid.CellCenter(row, col), true
}
