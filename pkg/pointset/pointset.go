// Package pointset loads and validates the ordered set of known locations
// (typically photo coordinates) that the coverage-gap search runs against.
package pointset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kass/go-coldspot/pkg/geodesy"
	"github.com/kass/go-coldspot/pkg/models"
)

// ErrNoPoints reports an empty input: there is nothing to be far away from.
var ErrNoPoints = errors.New("point set is empty")

// Set is an ordered, read-only sequence of locations.
type Set []models.Location

// New validates the given locations and returns them as a Set.
// Out-of-range coordinates and empty inputs fail fast, before any
// optimization work begins.
func New(points []models.Location) (Set, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	for i, p := range points {
		if !p.Valid() {
			return nil, fmt.Errorf("point %d out of range: lat=%.6f lon=%.6f", i, p.Lat, p.Lon)
		}
	}
	return Set(points), nil
}

// FromCSV reads a point set from tabular data with a `latitude,longitude`
// header, one record per row, values in decimal degrees. Rows with
// out-of-range coordinates are skipped, matching the upstream producers
// which occasionally emit (0,0) or garbage EXIF values.
func FromCSV(r io.Reader) (Set, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	latCol, lonCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "latitude", "lat":
			latCol = i
		case "longitude", "lon", "lng":
			lonCol = i
		}
	}
	if latCol < 0 || lonCol < 0 {
		return nil, fmt.Errorf("CSV header %v missing latitude/longitude columns", header)
	}

	var points []models.Location
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		lat, err := strconv.ParseFloat(record[latCol], 64)
		if err != nil {
			return nil, fmt.Errorf("bad latitude %q: %w", record[latCol], err)
		}
		lon, err := strconv.ParseFloat(record[lonCol], 64)
		if err != nil {
			return nil, fmt.Errorf("bad longitude %q: %w", record[lonCol], err)
		}
		p := models.Location{Lat: lat, Lon: lon}
		if !p.Valid() {
			continue
		}
		points = append(points, p)
	}
	return New(points)
}

// LoadCSV reads a point set from a CSV file on disk.
func LoadCSV(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return FromCSV(f)
}

// Bounds returns the bounding box of the set.
func (s Set) Bounds() models.BoundingBox {
	box := models.BoundingBox{BottomLeft: s[0], TopRight: s[0]}
	for _, p := range s[1:] {
		box.BottomLeft.Lat = min(box.BottomLeft.Lat, p.Lat)
		box.BottomLeft.Lon = min(box.BottomLeft.Lon, p.Lon)
		box.TopRight.Lat = max(box.TopRight.Lat, p.Lat)
		box.TopRight.Lon = max(box.TopRight.Lon, p.Lon)
	}
	return box
}

// Center returns the arithmetic mean of the set, used as the default sweep
// center when none is configured.
func (s Set) Center() models.Location {
	var sumLat, sumLon float64
	for _, p := range s {
		sumLat += p.Lat
		sumLon += p.Lon
	}
	n := float64(len(s))
	return models.Location{Lat: sumLat / n, Lon: sumLon / n}
}

// MaxDistanceFrom returns the distance in km from the given origin to the
// farthest point of the set, used to derive a default search radius.
func (s Set) MaxDistanceFrom(origin models.Location) float64 {
	var maxDist float64
	for _, p := range s {
		if d := geodesy.Distance(origin, p); d > maxDist {
			maxDist = d
		}
	}
	return maxDist
}

// Dedupe returns a new set with exact duplicate coordinates removed,
// preserving first-occurrence order.
func (s Set) Dedupe() Set {
	seen := make(map[models.Location]struct{}, len(s))
	out := make(Set, 0, len(s))
	for _, p := range s {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
