package pointset

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/kass/go-coldspot/pkg/geodesy"
	"github.com/kass/go-coldspot/pkg/models"
)

const (
	tolerance   = 0.0001
	minChildren = 25
	maxChildren = 50
	dimensions  = 2

	// minLonScale keeps the longitude compression factor away from zero for
	// point sets near the poles.
	minLonScale = 0.01

	// rerankCandidates is how many tree candidates are re-ranked with the
	// true great-circle distance per query.
	rerankCandidates = 4
)

// spatialItem wraps a location for R-Tree indexing
type spatialItem struct {
	loc  models.Location
	rect *rtreego.Rect
}

func (si *spatialItem) Bounds() *rtreego.Rect {
	return si.rect
}

// Index is an R-Tree over a point set. The min-distance objective calls
// NearestDistance thousands of times per search, so nearest-neighbor lookups
// must not scan the whole set. Longitudes are scaled by cos(latitude) of the
// set's center before indexing; in raw degrees the planar tree metric
// overweights longitude away from the equator and can rank the wrong
// candidates nearest.
type Index struct {
	tree     *rtreego.Rtree
	lonScale float64
}

// NewIndex builds an R-Tree index over the set.
func NewIndex(s Set) *Index {
	lonScale := math.Cos(s.Bounds().Center().Lat * math.Pi / 180.0)
	if lonScale < minLonScale {
		lonScale = minLonScale
	}

	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	for _, p := range s {
		rtPoint := rtreego.Point{p.Lat, p.Lon * lonScale}
		tree.Insert(&spatialItem{loc: p, rect: rtPoint.ToRect(tolerance)})
	}
	return &Index{tree: tree, lonScale: lonScale}
}

// Nearest returns up to n indexed locations closest to p, ordered by
// great-circle distance.
func (ix *Index) Nearest(p models.Location, n int) []models.Location {
	results := ix.tree.NearestNeighbors(n, rtreego.Point{p.Lat, p.Lon * ix.lonScale})
	out := make([]models.Location, 0, len(results))
	for _, r := range results {
		if item, ok := r.(*spatialItem); ok {
			out = append(out, item.loc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return geodesy.Distance(p, out[i]) < geodesy.Distance(p, out[j])
	})
	return out
}

// NearestDistance returns the haversine distance in km from p to the closest
// indexed point. The scaled tree metric is still planar, so a handful of
// candidates are re-ranked with the true great-circle distance.
func (ix *Index) NearestDistance(p models.Location) float64 {
	candidates := ix.tree.NearestNeighbors(rerankCandidates, rtreego.Point{p.Lat, p.Lon * ix.lonScale})
	best := -1.0
	for _, r := range candidates {
		item, ok := r.(*spatialItem)
		if !ok {
			continue
		}
		d := geodesy.Distance(p, item.loc)
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}
