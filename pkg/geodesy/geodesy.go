// Package geodesy provides great-circle distance and metric/degree
// conversions on the WGS84 sphere. Functions here sit in the hot path of
// objective evaluation and must stay allocation-free.
package geodesy

import (
	"math"

	"github.com/kass/go-coldspot/pkg/models"
)

const (
	// EarthRadiusKm is the mean earth radius used by the haversine formula.
	EarthRadiusKm = 6371.0

	// metersPerDegree is the approximate length of one degree of latitude.
	metersPerDegree = 111320.0

	// minCosLat keeps the longitude compression factor away from zero near
	// the poles (cos(89.4°) ≈ 0.01) so conversions never divide by zero.
	minCosLat = 0.01
)

// Distance returns the haversine distance between two locations in kilometers.
func Distance(a, b models.Location) float64 {
	lat1 := a.Lat * math.Pi / 180.0
	lat2 := b.Lat * math.Pi / 180.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180.0
	dLon := (b.Lon - a.Lon) * math.Pi / 180.0

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// MetersToDegrees converts a metric offset at the given origin into degree
// offsets along latitude and longitude. Longitude shrinks with cos(lat);
// the factor is clamped away from zero so polar origins cannot blow up.
func MetersToDegrees(origin models.Location, meters float64) (dLat, dLon float64) {
	dLat = meters / metersPerDegree
	cosLat := math.Cos(origin.Lat * math.Pi / 180.0)
	if math.Abs(cosLat) < minCosLat {
		cosLat = minCosLat
	}
	dLon = meters / (metersPerDegree * math.Abs(cosLat))
	return dLat, dLon
}
