package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-coldspot/pkg/models"
	"github.com/kass/go-coldspot/pkg/optimizer"
	"github.com/kass/go-coldspot/pkg/sweep"
)

func TestWriteCSV(t *testing.T) {
	summary := &sweep.Summary{
		Entries: []sweep.Entry{
			{
				Radius: 11.5,
				Result: optimizer.Result{
					Location: models.Location{Lat: 40.051234, Lon: -105.247654},
					Value:    -3.2,
					Success:  true,
				},
			},
		},
	}

	var sb strings.Builder
	require.NoError(t, WriteCSV(&sb, summary))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "radius,latitude,longitude,google_maps_link,gaia_gps_link", lines[0])
	assert.Contains(t, lines[1], "11.5,40.051234,-105.247654")
	assert.Contains(t, lines[1], "https://www.google.com/maps?q=40.051234,-105.247654")
	assert.Contains(t, lines[1], "gaiagps.com")
}

func TestWriteCSVEmptySummary(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteCSV(&sb, &sweep.Summary{}))
	assert.Equal(t, "radius,latitude,longitude,google_maps_link,gaia_gps_link", strings.TrimSpace(sb.String()))
}

func TestSaveCSV(t *testing.T) {
	summary := &sweep.Summary{
		Entries: []sweep.Entry{
			{
				Radius: 12,
				Result: optimizer.Result{
					Location: models.Location{Lat: 40.0150, Lon: -105.2705},
					Success:  true,
				},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, SaveCSV(path, summary))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "12,40.015000,-105.270500")

	// Writing to a directory path must surface the error.
	assert.Error(t, SaveCSV(t.TempDir(), summary))
}

func TestLinks(t *testing.T) {
	p := models.Location{Lat: 40.0150, Lon: -105.2705}
	assert.Equal(t, "https://www.google.com/maps?q=40.015000,-105.270500", GoogleMapsLink(p))
	assert.Contains(t, GaiaGPSLink(p), "lat=40.015000&lon=-105.270500")
}
