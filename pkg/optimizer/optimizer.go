// Package optimizer locates the minimum of a coverage objective inside a
// bounding box. Two interchangeable strategies sit behind the Strategy
// contract: an exhaustive lattice scan and a differential-evolution global
// search with optional local refinement.
package optimizer

import (
	"context"
	"errors"

	"github.com/kass/go-coldspot/pkg/models"
)

// ErrInfeasible reports search bounds that enclose no area. This is fatal to
// the search and surfaced to the caller, unlike a convergence failure which
// lives in the Result.
var ErrInfeasible = errors.New("search bounds enclose no area")

// Objective is the scalar function a strategy minimizes. Penalty is the
// sentinel an evaluation returns for infeasible candidates; a search whose
// best score never drops below it found nothing feasible.
type Objective interface {
	Evaluate(p models.Location) float64
	Penalty() float64
}

// Result is the outcome of one search. A failed search still carries the
// best candidate seen so far, with Success false and a diagnostic message.
type Result struct {
	Location    models.Location
	Value       float64
	Success     bool
	Message     string
	Evaluations int
}

// Strategy drives one search over the bounding box.
type Strategy interface {
	Search(ctx context.Context, obj Objective, bounds models.BoundingBox) (Result, error)
}
