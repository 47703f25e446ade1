// Package objective scores candidate locations for the coverage-gap search.
// Scores are minimized: the best candidate is the one farthest from (or
// least crowded by) the known points while staying inside the feasible
// region.
package objective

import (
	"fmt"

	"github.com/kass/go-coldspot/pkg/geodesy"
	"github.com/kass/go-coldspot/pkg/models"
	"github.com/kass/go-coldspot/pkg/pointset"
	"github.com/kass/go-coldspot/pkg/region"
)

// Mode selects how a candidate is scored. The two modes answer the same
// question with different numbers and are not comparable; a sweep must stick
// to one.
type Mode string

const (
	// ModeRepulsion sums 1/distance over all points: a potential that blows
	// up near existing points and rewards being far from all of them.
	ModeRepulsion Mode = "repulsion"

	// ModeMinDistance scores -min(distance): maximize the distance to the
	// nearest point.
	ModeMinDistance Mode = "min-distance"
)

// DefaultPenalty is the sentinel returned for infeasible or degenerate
// candidates. A large finite value rather than +Inf/NaN, so derivative-free
// optimizers can still rank penalized candidates and move toward the
// boundary.
const DefaultPenalty = 1e9

// degenerateKm is the distance below which a candidate is treated as
// coinciding with a known point.
const degenerateKm = 1e-6

// Config tunes an Objective.
type Config struct {
	Mode Mode

	// Penalty overrides DefaultPenalty when positive.
	Penalty float64

	// BoundaryCircle, with a positive BoundaryWeight, adds a soft
	// 1/|radius - distance-to-center| term that pulls candidates toward the
	// permitted boundary while the repulsion term pushes them from the
	// points. Only meaningful in ModeRepulsion.
	BoundaryCircle *region.Circle
	BoundaryWeight float64
}

// Objective evaluates candidates against a point set and a feasible region.
type Objective struct {
	points  pointset.Set
	index   *pointset.Index
	reg     region.Region
	cfg     Config
	penalty float64
}

// New builds an objective. reg may be nil for an unconstrained search.
func New(points pointset.Set, reg region.Region, cfg Config) (*Objective, error) {
	if len(points) == 0 {
		return nil, pointset.ErrNoPoints
	}
	switch cfg.Mode {
	case ModeRepulsion, ModeMinDistance:
	case "":
		cfg.Mode = ModeRepulsion
	default:
		return nil, fmt.Errorf("unknown objective mode %q", cfg.Mode)
	}
	penalty := cfg.Penalty
	if penalty <= 0 {
		penalty = DefaultPenalty
	}
	o := &Objective{points: points, reg: reg, cfg: cfg, penalty: penalty}
	if cfg.Mode == ModeMinDistance {
		o.index = pointset.NewIndex(points)
	}
	return o, nil
}

// Mode returns the scoring mode in use.
func (o *Objective) Mode() Mode { return o.cfg.Mode }

// Penalty returns the sentinel value used for infeasible candidates.
func (o *Objective) Penalty() float64 { return o.penalty }

// Region returns the feasible region, which may be nil.
func (o *Objective) Region() region.Region { return o.reg }

// Evaluate scores the candidate. Infeasible candidates and candidates
// coinciding with a known point score the sentinel penalty; everything else
// scores finite.
func (o *Objective) Evaluate(candidate models.Location) float64 {
	if o.reg != nil && !o.reg.Contains(candidate) {
		return o.penalty
	}

	switch o.cfg.Mode {
	case ModeMinDistance:
		d := o.index.NearestDistance(candidate)
		if d < degenerateKm {
			return o.penalty
		}
		return -d
	default:
		return o.repulsion(candidate)
	}
}

func (o *Objective) repulsion(candidate models.Location) float64 {
	sum := 0.0
	for _, p := range o.points {
		d := geodesy.Distance(candidate, p)
		if d < degenerateKm {
			return o.penalty
		}
		sum += 1 / d
	}
	if o.cfg.BoundaryCircle != nil && o.cfg.BoundaryWeight > 0 {
		db := o.cfg.BoundaryCircle.RadiusKm - geodesy.Distance(candidate, o.cfg.BoundaryCircle.Center)
		if db < 0 {
			db = -db
		}
		if db < degenerateKm {
			return o.penalty
		}
		sum += o.cfg.BoundaryWeight / db
	}
	return sum
}
