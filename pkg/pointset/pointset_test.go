package pointset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-coldspot/pkg/geodesy"
	"github.com/kass/go-coldspot/pkg/models"
)

func TestNewEmpty(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoPoints)
}

func TestNewOutOfRange(t *testing.T) {
	_, err := New([]models.Location{{Lat: 91, Lon: 0}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestFromCSV(t *testing.T) {
	input := "latitude,longitude\n40.0150,-105.2705\n39.7392,-104.9903\n"
	set, err := FromCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Len(t, set, 2)
	assert.Equal(t, models.Location{Lat: 40.0150, Lon: -105.2705}, set[0])
}

func TestFromCSVColumnOrder(t *testing.T) {
	input := "longitude,latitude\n-105.2705,40.0150\n"
	set, err := FromCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, models.Location{Lat: 40.0150, Lon: -105.2705}, set[0])
}

func TestFromCSVSkipsInvalidCoordinates(t *testing.T) {
	input := "latitude,longitude\n40.0,-105.0\n99.0,-105.0\n41.0,-300.0\n"
	set, err := FromCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, set, 1)
}

func TestFromCSVMissingHeader(t *testing.T) {
	input := "x,y\n1,2\n"
	_, err := FromCSV(strings.NewReader(input))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing latitude/longitude")
}

func TestFromCSVAllRowsInvalid(t *testing.T) {
	input := "latitude,longitude\n99.0,0.0\n"
	_, err := FromCSV(strings.NewReader(input))
	assert.ErrorIs(t, err, ErrNoPoints)
}

func TestFromCSVBadValue(t *testing.T) {
	input := "latitude,longitude\nabc,-105.0\n"
	_, err := FromCSV(strings.NewReader(input))
	assert.Error(t, err)
}

func TestBoundsAndCenter(t *testing.T) {
	set, err := New([]models.Location{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
		{Lat: 1, Lon: 0},
		{Lat: 1, Lon: 1},
	})
	require.NoError(t, err)

	box := set.Bounds()
	assert.Equal(t, models.Location{Lat: 0, Lon: 0}, box.BottomLeft)
	assert.Equal(t, models.Location{Lat: 1, Lon: 1}, box.TopRight)

	center := set.Center()
	assert.InDelta(t, 0.5, center.Lat, 1e-9)
	assert.InDelta(t, 0.5, center.Lon, 1e-9)
}

func TestMaxDistanceFrom(t *testing.T) {
	set, err := New([]models.Location{
		{Lat: 40.0150, Lon: -105.2705}, // Boulder
		{Lat: 39.7392, Lon: -104.9903}, // Denver
	})
	require.NoError(t, err)

	d := set.MaxDistanceFrom(models.Location{Lat: 40.0150, Lon: -105.2705})
	assert.InDelta(t, 39.0, d, 2.0)
}

func TestDedupe(t *testing.T) {
	set, err := New([]models.Location{
		{Lat: 1, Lon: 1},
		{Lat: 2, Lon: 2},
		{Lat: 1, Lon: 1},
	})
	require.NoError(t, err)

	deduped := set.Dedupe()
	assert.Len(t, deduped, 2)
	assert.Equal(t, models.Location{Lat: 1, Lon: 1}, deduped[0])
}

func TestIndexNearestDistance(t *testing.T) {
	set, err := New([]models.Location{
		{Lat: 37.7749, Lon: -122.4194}, // SF
		{Lat: 37.8044, Lon: -122.2712}, // Oakland
		{Lat: 34.0522, Lon: -118.2437}, // LA
	})
	require.NoError(t, err)

	ix := NewIndex(set)

	// Query at SF itself.
	assert.InDelta(t, 0, ix.NearestDistance(models.Location{Lat: 37.7749, Lon: -122.4194}), 0.01)

	// Query near Oakland: nearest is Oakland, not SF.
	d := ix.NearestDistance(models.Location{Lat: 37.81, Lon: -122.27})
	assert.Less(t, d, 1.0)
}

func TestIndexNearest(t *testing.T) {
	set, err := New([]models.Location{
		{Lat: 37.7749, Lon: -122.4194},
		{Lat: 37.8044, Lon: -122.2712},
		{Lat: 34.0522, Lon: -118.2437},
	})
	require.NoError(t, err)

	ix := NewIndex(set)
	nearest := ix.Nearest(models.Location{Lat: 37.7749, Lon: -122.4194}, 2)
	require.Len(t, nearest, 2)
	assert.Equal(t, set[0], nearest[0])
}

func TestIndexNearestDistanceHighLatitude(t *testing.T) {
	// At 60N a degree of longitude covers half the ground of a degree of
	// latitude. The physically nearest point sits 0.6 degrees due east; the
	// four decoys are closer in raw degree space but farther on the ground.
	set, err := New([]models.Location{
		{Lat: 60, Lon: 0.6},
		{Lat: 60.5, Lon: 0},
		{Lat: 59.5, Lon: 0},
		{Lat: 60.45, Lon: 0.1},
		{Lat: 59.55, Lon: -0.1},
	})
	require.NoError(t, err)

	ix := NewIndex(set)
	query := models.Location{Lat: 60, Lon: 0}

	want := geodesy.Distance(query, models.Location{Lat: 60, Lon: 0.6})
	assert.InDelta(t, want, ix.NearestDistance(query), 1e-9)

	nearest := ix.Nearest(query, 1)
	require.Len(t, nearest, 1)
	assert.Equal(t, models.Location{Lat: 60, Lon: 0.6}, nearest[0])
}
