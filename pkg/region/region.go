// Package region models the feasible search area for the coverage-gap
// optimizer: a bounding circle, an administrative polygon, or the
// intersection of several constraints. Callers only see the Region contract,
// so the objective and optimizer stay agnostic to which variant is active.
package region

import (
	"errors"
	"fmt"

	"github.com/kass/go-coldspot/pkg/geodesy"
	"github.com/kass/go-coldspot/pkg/models"
)

// ErrEmptyRegion reports a region definition with no interior, such as a
// zero-radius circle or a degenerate polygon ring.
var ErrEmptyRegion = errors.New("region has empty interior")

// Region answers point-containment queries and exposes a bounding box
// suitable for seeding optimizer search bounds.
type Region interface {
	Contains(p models.Location) bool
	Bounds() models.BoundingBox
}

// Circle is a bounding circle feasible region.
type Circle struct {
	Center   models.Location
	RadiusKm float64
}

// NewCircle validates and builds a circular region.
func NewCircle(center models.Location, radiusKm float64) (*Circle, error) {
	if !center.Valid() {
		return nil, fmt.Errorf("invalid circle center %+v", center)
	}
	if radiusKm <= 0 {
		return nil, fmt.Errorf("circle radius %.3f km: %w", radiusKm, ErrEmptyRegion)
	}
	return &Circle{Center: center, RadiusKm: radiusKm}, nil
}

// Contains reports whether p lies within RadiusKm of the center.
func (c *Circle) Contains(p models.Location) bool {
	return geodesy.Distance(p, c.Center) <= c.RadiusKm
}

// Bounds returns the box circumscribing the circle.
func (c *Circle) Bounds() models.BoundingBox {
	dLat, dLon := geodesy.MetersToDegrees(c.Center, c.RadiusKm*1000)
	return models.BoundingBox{
		BottomLeft: models.Location{Lat: c.Center.Lat - dLat, Lon: c.Center.Lon - dLon},
		TopRight:   models.Location{Lat: c.Center.Lat + dLat, Lon: c.Center.Lon + dLon},
	}
}

// Polygon is a single closed ring feasible region. Containment uses ray
// casting in an equirectangular (plate carrée) projection, which is accurate
// to well under a cell width for extents below ~100 km; administrative areas
// at city/county scale are far inside that bound. Rings are assumed closed
// and non-self-intersecting.
type Polygon struct {
	ring []models.Location
	box  models.BoundingBox
}

// NewPolygon builds a polygon region from an ordered ring of vertices.
// The closing vertex may be repeated or omitted.
func NewPolygon(ring []models.Location) (*Polygon, error) {
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		return nil, fmt.Errorf("polygon with %d vertices: %w", len(ring), ErrEmptyRegion)
	}
	box := models.BoundingBox{BottomLeft: ring[0], TopRight: ring[0]}
	for _, v := range ring {
		if !v.Valid() {
			return nil, fmt.Errorf("invalid polygon vertex %+v", v)
		}
		box.BottomLeft.Lat = min(box.BottomLeft.Lat, v.Lat)
		box.BottomLeft.Lon = min(box.BottomLeft.Lon, v.Lon)
		box.TopRight.Lat = max(box.TopRight.Lat, v.Lat)
		box.TopRight.Lon = max(box.TopRight.Lon, v.Lon)
	}
	return &Polygon{ring: ring, box: box}, nil
}

// Contains reports whether p lies inside the ring.
func (pg *Polygon) Contains(p models.Location) bool {
	if !pg.box.Contains(p) {
		return false
	}
	inside := false
	n := len(pg.ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := pg.ring[i], pg.ring[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) {
			lonCross := vj.Lon + (p.Lat-vj.Lat)/(vi.Lat-vj.Lat)*(vi.Lon-vj.Lon)
			if p.Lon < lonCross {
				inside = !inside
			}
		}
	}
	return inside
}

// Bounds returns the ring's bounding box.
func (pg *Polygon) Bounds() models.BoundingBox {
	return pg.box
}

// MultiPolygon is a union of disjoint rings, as produced by administrative
// boundary lookups that return several parts.
type MultiPolygon struct {
	parts []*Polygon
}

// NewMultiPolygon builds a region from one or more rings.
func NewMultiPolygon(rings ...[]models.Location) (*MultiPolygon, error) {
	if len(rings) == 0 {
		return nil, ErrEmptyRegion
	}
	parts := make([]*Polygon, 0, len(rings))
	for _, ring := range rings {
		p, err := NewPolygon(ring)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return &MultiPolygon{parts: parts}, nil
}

// Contains reports whether any part contains p.
func (mp *MultiPolygon) Contains(p models.Location) bool {
	for _, part := range mp.parts {
		if part.Contains(p) {
			return true
		}
	}
	return false
}

// Bounds returns the box enclosing all parts.
func (mp *MultiPolygon) Bounds() models.BoundingBox {
	box := mp.parts[0].Bounds()
	for _, part := range mp.parts[1:] {
		pb := part.Bounds()
		box.BottomLeft.Lat = min(box.BottomLeft.Lat, pb.BottomLeft.Lat)
		box.BottomLeft.Lon = min(box.BottomLeft.Lon, pb.BottomLeft.Lon)
		box.TopRight.Lat = max(box.TopRight.Lat, pb.TopRight.Lat)
		box.TopRight.Lon = max(box.TopRight.Lon, pb.TopRight.Lon)
	}
	return box
}

// Intersection is the conjunction of several regions, used for searches like
// "inside the bounding circle AND on public land".
type Intersection struct {
	regions []Region
}

// Intersect combines regions into their conjunction.
func Intersect(regions ...Region) (*Intersection, error) {
	if len(regions) == 0 {
		return nil, ErrEmptyRegion
	}
	return &Intersection{regions: regions}, nil
}

// Contains reports whether every sub-region contains p.
func (in *Intersection) Contains(p models.Location) bool {
	for _, r := range in.regions {
		if !r.Contains(p) {
			return false
		}
	}
	return true
}

// Bounds returns the intersection of the sub-region boxes. The box may be
// empty when the constraints do not overlap; callers should treat that as an
// infeasible region.
func (in *Intersection) Bounds() models.BoundingBox {
	box := in.regions[0].Bounds()
	for _, r := range in.regions[1:] {
		box = box.Intersect(r.Bounds())
	}
	return box
}
