package optimizer

import (
	"context"
	"fmt"

	"github.com/kass/go-coldspot/pkg/models"
)

const defaultResolution = 100

// GridScan exhaustively evaluates the objective at the centers of a regular
// lattice over the bounds and returns the minimizer. Deterministic: ties
// break to the first cell in row-major order (south to north, west to east).
type GridScan struct {
	// Resolution is the number of lattice cells per axis (default 100).
	Resolution int
}

// Search implements Strategy.
func (g *GridScan) Search(ctx context.Context, obj Objective, bounds models.BoundingBox) (Result, error) {
	if bounds.Empty() {
		return Result{}, ErrInfeasible
	}
	res := g.Resolution
	if res <= 0 {
		res = defaultResolution
	}

	latStep := (bounds.TopRight.Lat - bounds.BottomLeft.Lat) / float64(res)
	lonStep := (bounds.TopRight.Lon - bounds.BottomLeft.Lon) / float64(res)

	best := Result{Value: obj.Penalty()}
	found := false
	for i := 0; i < res; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("grid scan canceled: %w", err)
		}
		lat := bounds.BottomLeft.Lat + (float64(i)+0.5)*latStep
		for j := 0; j < res; j++ {
			p := models.Location{Lat: lat, Lon: bounds.BottomLeft.Lon + (float64(j)+0.5)*lonStep}
			v := obj.Evaluate(p)
			best.Evaluations++
			if v < best.Value {
				best.Value = v
				best.Location = p
				found = true
			}
		}
	}

	if !found {
		best.Message = "no feasible lattice cell inside the search bounds"
		return best, nil
	}
	best.Success = true
	return best, nil
}
