// Package report writes sweep results in the tabular form consumed by the
// mapping layer: one row per radius with the coldest location and deep links
// for quick inspection.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/kass/go-coldspot/pkg/models"
	"github.com/kass/go-coldspot/pkg/sweep"
)

// GoogleMapsLink returns a maps deep link for the location.
func GoogleMapsLink(p models.Location) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%.6f,%.6f", p.Lat, p.Lon)
}

// GaiaGPSLink returns a GaiaGPS deep link for the location.
func GaiaGPSLink(p models.Location) string {
	return fmt.Sprintf("https://www.gaiagps.com/map/?lat=%.6f&lon=%.6f&zoom=15", p.Lat, p.Lon)
}

// WriteCSV writes the sweep entries as CSV with a header row.
func WriteCSV(w io.Writer, summary *sweep.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"radius", "latitude", "longitude", "google_maps_link", "gaia_gps_link"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range summary.Entries {
		record := []string{
			fmt.Sprintf("%g", e.Radius),
			fmt.Sprintf("%.6f", e.Result.Location.Lat),
			fmt.Sprintf("%.6f", e.Result.Location.Lon),
			GoogleMapsLink(e.Result.Location),
			GaiaGPSLink(e.Result.Location),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the sweep entries to a file. The close error is returned,
// not discarded: a failed flush to disk would otherwise pass silently.
func SaveCSV(path string, summary *sweep.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, summary); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
