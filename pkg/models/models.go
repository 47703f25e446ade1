// Package models holds the shared geographic value types used across the
// coldspot core.
package models

// Location represents a geographic location with latitude and longitude
// in WGS84 decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the location lies within WGS84 coordinate ranges.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lon >= -180 && l.Lon <= 180
}

// BoundingBox represents a rectangular area defined by two corners
type BoundingBox struct {
	BottomLeft Location
	TopRight   Location
}

// Contains reports whether the location falls inside the box (inclusive).
func (b BoundingBox) Contains(l Location) bool {
	return l.Lat >= b.BottomLeft.Lat && l.Lat <= b.TopRight.Lat &&
		l.Lon >= b.BottomLeft.Lon && l.Lon <= b.TopRight.Lon
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() Location {
	return Location{
		Lat: (b.BottomLeft.Lat + b.TopRight.Lat) / 2,
		Lon: (b.BottomLeft.Lon + b.TopRight.Lon) / 2,
	}
}

// Expand grows the box by the given margin in degrees on every side.
func (b BoundingBox) Expand(margin float64) BoundingBox {
	return BoundingBox{
		BottomLeft: Location{Lat: b.BottomLeft.Lat - margin, Lon: b.BottomLeft.Lon - margin},
		TopRight:   Location{Lat: b.TopRight.Lat + margin, Lon: b.TopRight.Lon + margin},
	}
}

// Intersect clips the box against another. The result may be empty.
func (b BoundingBox) Intersect(o BoundingBox) BoundingBox {
	return BoundingBox{
		BottomLeft: Location{
			Lat: max(b.BottomLeft.Lat, o.BottomLeft.Lat),
			Lon: max(b.BottomLeft.Lon, o.BottomLeft.Lon),
		},
		TopRight: Location{
			Lat: min(b.TopRight.Lat, o.TopRight.Lat),
			Lon: min(b.TopRight.Lon, o.TopRight.Lon),
		},
	}
}

// Empty reports whether the box encloses no area.
func (b BoundingBox) Empty() bool {
	return b.BottomLeft.Lat >= b.TopRight.Lat || b.BottomLeft.Lon >= b.TopRight.Lon
}
