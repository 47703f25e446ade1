package sweep

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-coldspot/pkg/models"
	"github.com/kass/go-coldspot/pkg/objective"
	"github.com/kass/go-coldspot/pkg/optimizer"
	"github.com/kass/go-coldspot/pkg/pointset"
	"github.com/kass/go-coldspot/pkg/region"
)

var sweepCenter = models.Location{Lat: 40.0150, Lon: -105.2705}

func testDriver(t *testing.T) *Driver {
	t.Helper()
	set, err := pointset.New([]models.Location{
		sweepCenter,
		{Lat: 40.05, Lon: -105.20},
	})
	require.NoError(t, err)

	return &Driver{
		Strategy: &optimizer.GridScan{Resolution: 40},
		Regions: func(radiusKm float64) (region.Region, error) {
			return region.NewCircle(sweepCenter, radiusKm)
		},
		Objectives: func(radiusKm float64, reg region.Region) (optimizer.Objective, error) {
			return objective.New(set, reg, objective.Config{Mode: objective.ModeMinDistance})
		},
		Workers: 2,
	}
}

func TestSweepSingleRadius(t *testing.T) {
	d := testDriver(t)

	summary, err := d.Sweep(context.Background(), 1, 1, 1)
	require.NoError(t, err)

	assert.Len(t, summary.Entries, 1)
	assert.Equal(t, 1.0, summary.Entries[0].Radius)
	assert.Empty(t, summary.Failures)
}

func TestSweepRangeOrdered(t *testing.T) {
	d := testDriver(t)

	summary, err := d.Sweep(context.Background(), 1, 3, 0.5)
	require.NoError(t, err)

	require.Len(t, summary.Entries, 5)
	prev := 0.0
	for _, e := range summary.Entries {
		assert.Greater(t, e.Radius, prev)
		prev = e.Radius
	}

	entry, ok := summary.Lookup(2.5)
	assert.True(t, ok)
	assert.Equal(t, 2.5, entry.Radius)

	_, ok = summary.Lookup(9.9)
	assert.False(t, ok)
}

func TestSweepSkipsInfeasibleRadius(t *testing.T) {
	d := testDriver(t)
	// Radius 2 produces an empty region; 1 and 3 still succeed.
	d.Regions = func(radiusKm float64) (region.Region, error) {
		if radiusKm == 2 {
			return nil, region.ErrEmptyRegion
		}
		return region.NewCircle(sweepCenter, radiusKm)
	}

	summary, err := d.Sweep(context.Background(), 1, 3, 1)
	require.NoError(t, err)

	require.Len(t, summary.Entries, 2)
	assert.Equal(t, 1.0, summary.Entries[0].Radius)
	assert.Equal(t, 3.0, summary.Entries[1].Radius)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, 2.0, summary.Failures[0].Radius)
	assert.Contains(t, summary.Failures[0].Reason, "empty interior")
}

func TestSweepSkipsFailedSearch(t *testing.T) {
	d := testDriver(t)
	// A region whose interior never intersects the scanned bounds makes
	// every lattice cell infeasible, so the search reports failure.
	d.Objectives = func(radiusKm float64, reg region.Region) (optimizer.Objective, error) {
		set, err := pointset.New([]models.Location{sweepCenter})
		if err != nil {
			return nil, err
		}
		far, err := region.NewCircle(models.Location{Lat: -40, Lon: 100}, 1)
		if err != nil {
			return nil, err
		}
		return objective.New(set, far, objective.Config{Mode: objective.ModeMinDistance})
	}

	summary, err := d.Sweep(context.Background(), 1, 2, 1)
	require.NoError(t, err)
	assert.Empty(t, summary.Entries)
	assert.Len(t, summary.Failures, 2)
}

func TestSweepParameterValidation(t *testing.T) {
	d := testDriver(t)

	_, err := d.Sweep(context.Background(), 1, 3, 0)
	assert.Error(t, err)

	_, err = d.Sweep(context.Background(), 3, 1, 1)
	assert.Error(t, err)

	_, err = (&Driver{}).Sweep(context.Background(), 1, 3, 1)
	assert.Error(t, err)
}

func TestSweepRoundedKeys(t *testing.T) {
	// 0.1 is not exactly representable; accumulated steps must still land
	// on unique two-decimal keys.
	radii := radiusSteps(1.0, 1.5, 0.1)
	assert.Equal(t, []float64{1.0, 1.1, 1.2, 1.3, 1.4, 1.5}, radii)
}

func TestSweepConcurrentMatchesSerial(t *testing.T) {
	serial := testDriver(t)
	serial.Workers = 1
	concurrent := testDriver(t)
	concurrent.Workers = 4

	s1, err := serial.Sweep(context.Background(), 1, 4, 1)
	require.NoError(t, err)
	s2, err := concurrent.Sweep(context.Background(), 1, 4, 1)
	require.NoError(t, err)

	require.Equal(t, len(s1.Entries), len(s2.Entries))
	for i := range s1.Entries {
		assert.Equal(t, s1.Entries[i], s2.Entries[i])
	}
}

func TestSweepCanceled(t *testing.T) {
	d := testDriver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Sweep(ctx, 1, 3, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
