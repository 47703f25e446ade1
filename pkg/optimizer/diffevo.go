package optimizer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/kass/go-coldspot/pkg/models"
)

const (
	defaultPopSize = 30
	defaultMaxIter = 1000
	defaultTol     = 1e-6
	defaultCR      = 0.7
)

// DifferentialEvolution is a population-based derivative-free global search
// (best/1/bin) over the bounding box, optionally polished by a Nelder-Mead
// local refinement seeded at the global best. The objective may be
// discontinuous (hard penalty walls), which rules out gradient methods for
// the global stage.
type DifferentialEvolution struct {
	// PopSize is the number of population members (default 30).
	PopSize int
	// MaxIter caps the number of generations (default 1000). The cap is a
	// hard requirement: convergence is otherwise unbounded.
	MaxIter int
	// Tol is the relative convergence tolerance on the spread of population
	// energies (default 1e-6).
	Tol float64
	// Seed fixes the random source for reproducible runs. Zero seeds from
	// the clock.
	Seed int64
	// CrossoverProb is the binomial crossover probability (default 0.7).
	CrossoverProb float64
	// Refine runs a Nelder-Mead polish from the global best.
	Refine bool
}

type member struct {
	x [2]float64
	f float64
}

// Search implements Strategy.
func (de *DifferentialEvolution) Search(ctx context.Context, obj Objective, bounds models.BoundingBox) (Result, error) {
	if bounds.Empty() {
		return Result{}, ErrInfeasible
	}

	popSize := de.PopSize
	if popSize < 5 {
		popSize = defaultPopSize
	}
	maxIter := de.MaxIter
	if maxIter <= 0 {
		maxIter = defaultMaxIter
	}
	tol := de.Tol
	if tol <= 0 {
		tol = defaultTol
	}
	cr := de.CrossoverProb
	if cr <= 0 || cr > 1 {
		cr = defaultCR
	}
	seed := de.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	lo := [2]float64{bounds.BottomLeft.Lat, bounds.BottomLeft.Lon}
	hi := [2]float64{bounds.TopRight.Lat, bounds.TopRight.Lon}

	evals := 0
	eval := func(x [2]float64) float64 {
		evals++
		return obj.Evaluate(models.Location{Lat: x[0], Lon: x[1]})
	}

	// Uniform random initialization inside the bounds.
	pop := make([]member, popSize)
	bestIdx := 0
	for i := range pop {
		for d := 0; d < 2; d++ {
			pop[i].x[d] = lo[d] + rng.Float64()*(hi[d]-lo[d])
		}
		pop[i].f = eval(pop[i].x)
		if pop[i].f < pop[bestIdx].f {
			bestIdx = i
		}
	}

	converged := false
	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("differential evolution canceled: %w", err)
		}

		// Dithered mutation factor, resampled each generation.
		f := 0.5 + 0.5*rng.Float64()

		for i := range pop {
			r1, r2 := rng.Intn(popSize), rng.Intn(popSize)
			for r1 == i {
				r1 = rng.Intn(popSize)
			}
			for r2 == i || r2 == r1 {
				r2 = rng.Intn(popSize)
			}

			var trial [2]float64
			forced := rng.Intn(2)
			for d := 0; d < 2; d++ {
				if d == forced || rng.Float64() < cr {
					v := pop[bestIdx].x[d] + f*(pop[r1].x[d]-pop[r2].x[d])
					trial[d] = clamp(v, lo[d], hi[d])
				} else {
					trial[d] = pop[i].x[d]
				}
			}

			if fv := eval(trial); fv <= pop[i].f {
				pop[i] = member{x: trial, f: fv}
				if fv < pop[bestIdx].f {
					bestIdx = i
				}
			}
		}

		if energySpread(pop) <= tol*math.Abs(meanEnergy(pop)) {
			converged = true
			break
		}
	}

	best := pop[bestIdx]
	result := Result{
		Location:    models.Location{Lat: best.x[0], Lon: best.x[1]},
		Value:       best.f,
		Evaluations: evals,
	}

	if !converged {
		result.Message = fmt.Sprintf("maximum generations (%d) reached without convergence", maxIter)
		return result, nil
	}
	if best.f >= obj.Penalty() {
		result.Message = "population converged on the penalty plateau; region may be infeasible"
		return result, nil
	}

	if de.Refine {
		if loc, v, n, ok := refine(obj, lo, hi, best.x); ok && v < result.Value {
			result.Location = loc
			result.Value = v
			result.Evaluations += n
		}
	}

	result.Success = true
	return result, nil
}

// refine polishes the global best with a bounded Nelder-Mead descent.
// Bounds are enforced by clamping inside the wrapped objective, which keeps
// the method applicable to box constraints.
func refine(obj Objective, lo, hi, start [2]float64) (models.Location, float64, int, bool) {
	evals := 0
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			evals++
			p := models.Location{
				Lat: clamp(x[0], lo[0], hi[0]),
				Lon: clamp(x[1], lo[1], hi[1]),
			}
			return obj.Evaluate(p)
		},
	}

	res, err := optimize.Minimize(problem, []float64{start[0], start[1]}, nil, &optimize.NelderMead{})
	if err != nil || res == nil {
		return models.Location{}, 0, evals, false
	}
	loc := models.Location{
		Lat: clamp(res.X[0], lo[0], hi[0]),
		Lon: clamp(res.X[1], lo[1], hi[1]),
	}
	return loc, res.F, evals, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func meanEnergy(pop []member) float64 {
	sum := 0.0
	for _, m := range pop {
		sum += m.f
	}
	return sum / float64(len(pop))
}

func energySpread(pop []member) float64 {
	mean := meanEnergy(pop)
	varSum := 0.0
	for _, m := range pop {
		d := m.f - mean
		varSum += d * d
	}
	return math.Sqrt(varSum / float64(len(pop)))
}
