// Package sweep re-runs the coverage-gap search across a range of bounding
// radii, collecting one result per radius. Iterations are independent, so
// the driver fans them out across a worker pool; each iteration builds its
// own region and objective and failed radii are skipped, never fatal.
package sweep

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/kass/go-coldspot/pkg/optimizer"
	"github.com/kass/go-coldspot/pkg/region"
)

// radiusDecimals fixes the precision radii are rounded to before use as
// sweep keys, so floating-point drift in the step accumulation cannot
// produce duplicate or missing entries.
const radiusDecimals = 2

// RegionFactory builds the feasible region for one radius value.
type RegionFactory func(radiusKm float64) (region.Region, error)

// ObjectiveFactory builds the objective for one radius and its region.
type ObjectiveFactory func(radiusKm float64, reg region.Region) (optimizer.Objective, error)

// Entry is one successful sweep iteration.
type Entry struct {
	Radius float64
	Result optimizer.Result
}

// Failure records a skipped radius and why.
type Failure struct {
	Radius float64
	Reason string
}

// Summary is the outcome of a sweep, ordered by radius.
type Summary struct {
	Entries  []Entry
	Failures []Failure
}

// Lookup returns the entry for a radius, matching on the rounded key.
func (s *Summary) Lookup(radiusKm float64) (Entry, bool) {
	key := roundRadius(radiusKm)
	for _, e := range s.Entries {
		if e.Radius == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Driver orchestrates the sweep.
type Driver struct {
	Strategy   optimizer.Strategy
	Regions    RegionFactory
	Objectives ObjectiveFactory

	// Workers caps concurrent iterations; zero means one per CPU.
	Workers int

	// Logger receives per-radius diagnostics; nil means no logging.
	Logger *zap.Logger
}

// Sweep runs one search per radius in [minKm, maxKm] stepping by stepKm.
// A failed radius (infeasible region, optimizer error, non-convergence) is
// logged and skipped; the remaining radii still produce entries.
func (d *Driver) Sweep(ctx context.Context, minKm, maxKm, stepKm float64) (*Summary, error) {
	if d.Strategy == nil || d.Regions == nil || d.Objectives == nil {
		return nil, fmt.Errorf("sweep driver missing strategy or factories")
	}
	if stepKm <= 0 {
		return nil, fmt.Errorf("sweep step %.3f km must be positive", stepKm)
	}
	if minKm > maxKm {
		return nil, fmt.Errorf("sweep range [%.2f, %.2f] km is inverted", minKm, maxKm)
	}

	radii := radiusSteps(minKm, maxKm, stepKm)
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Each iteration writes only its own slot, so no locking is needed.
	entries := make([]*Entry, len(radii))
	failures := make([]*Failure, len(radii))

	workers := d.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(radii) {
		workers = len(radii)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				entries[i], failures[i] = d.runOne(ctx, logger, radii[i])
			}
		}()
	}
	for i := range radii {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sweep canceled: %w", err)
	}

	summary := &Summary{}
	for i := range radii {
		if failures[i] != nil {
			summary.Failures = append(summary.Failures, *failures[i])
			continue
		}
		if entries[i] != nil {
			summary.Entries = append(summary.Entries, *entries[i])
		}
	}
	logger.Info("sweep complete",
		zap.Int("radii", len(radii)),
		zap.Int("succeeded", len(summary.Entries)),
		zap.Int("failed", len(summary.Failures)))
	return summary, nil
}

func (d *Driver) runOne(ctx context.Context, logger *zap.Logger, radiusKm float64) (*Entry, *Failure) {
	skip := func(reason string) (*Entry, *Failure) {
		logger.Warn("radius skipped",
			zap.Float64("radius_km", radiusKm),
			zap.String("reason", reason))
		return nil, &Failure{Radius: radiusKm, Reason: reason}
	}

	reg, err := d.Regions(radiusKm)
	if err != nil {
		return skip(fmt.Sprintf("region: %v", err))
	}
	bounds := reg.Bounds()
	if bounds.Empty() {
		return skip("region bounds enclose no area")
	}
	obj, err := d.Objectives(radiusKm, reg)
	if err != nil {
		return skip(fmt.Sprintf("objective: %v", err))
	}

	result, err := d.Strategy.Search(ctx, obj, bounds)
	if err != nil {
		return skip(fmt.Sprintf("search: %v", err))
	}
	if !result.Success {
		return skip(result.Message)
	}

	logger.Info("radius solved",
		zap.Float64("radius_km", radiusKm),
		zap.Float64("lat", result.Location.Lat),
		zap.Float64("lon", result.Location.Lon),
		zap.Float64("score", result.Value),
		zap.Int("evaluations", result.Evaluations))
	return &Entry{Radius: radiusKm, Result: result}, nil
}

// radiusSteps expands the inclusive range into rounded, deduplicated keys.
func radiusSteps(minKm, maxKm, stepKm float64) []float64 {
	var radii []float64
	seen := make(map[float64]struct{})
	for r := minKm; r <= maxKm+stepKm/2; r += stepKm {
		key := roundRadius(r)
		if key > roundRadius(maxKm) {
			break
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		radii = append(radii, key)
	}
	return radii
}

func roundRadius(r float64) float64 {
	scale := math.Pow(10, radiusDecimals)
	return math.Round(r*scale) / scale
}
