package boundary

import (
	"fmt"

	"github.com/evyataryagoni/boundary-checker/internal/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"
)

// Boundary is the normalized eligibility region: one or more polygon parts in
// WGS84 longitude/latitude. It is built once and never mutated, so a single
// value can be shared by concurrent lookups without locking.
type Boundary struct {
	polygon  orb.MultiPolygon
	bound    orb.Bound
	index    rtree.RTreeG[int] // part bounding boxes -> part index
	geometry []byte            // cached GeoJSON encoding of polygon
}

func newBoundary(mp orb.MultiPolygon) (*Boundary, error) {
	b := &Boundary{
		polygon: mp,
		bound:   mp.Bound(),
	}

	for i, part := range mp {
		pb := part.Bound()
		b.index.Insert(pb.Min, pb.Max, i)
	}

	raw, err := geojson.NewGeometry(mp).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding boundary geometry: %w", err)
	}
	b.geometry = raw

	return b, nil
}

// Contains reports whether the point lies strictly inside any part.
//
// Points exactly on a ring edge or vertex (exterior or hole) are outside.
// Edge detection uses exact arithmetic on the input floats, so the answer
// for a given point and boundary never changes between calls.
func (b *Boundary) Contains(c models.GeoCoordinate) bool {
	pt := orb.Point{c.Longitude, c.Latitude}
	if !b.bound.Contains(pt) {
		return false
	}

	inside := false
	b.index.Search(pt, pt, func(_, _ [2]float64, part int) bool {
		poly := b.polygon[part]
		if onBoundary(poly, pt) {
			return true
		}
		if planar.PolygonContains(poly, pt) {
			inside = true
			return false
		}
		return true
	})

	return inside
}

// Parts returns the number of polygon parts
func (b *Boundary) Parts() int {
	return len(b.polygon)
}

// Bound returns the bounding box of all parts
func (b *Boundary) Bound() orb.Bound {
	return b.bound
}

// MultiPolygon returns a copy of the geometry; callers may modify it freely.
func (b *Boundary) MultiPolygon() orb.MultiPolygon {
	return b.polygon.Clone()
}

// GeometryJSON returns the GeoJSON geometry object for rendering. The slice
// is shared and must not be modified.
func (b *Boundary) GeometryJSON() []byte {
	return b.geometry
}

// Feature wraps a copy of the geometry in a GeoJSON feature
func (b *Boundary) Feature() *geojson.Feature {
	f := geojson.NewFeature(b.MultiPolygon())
	f.Properties["kind"] = "boundary"
	f.Properties["parts"] = len(b.polygon)
	return f
}

// Exteriors returns the outer ring of every part as coordinates, which is
// what a map layer needs to draw the region outline.
func (b *Boundary) Exteriors() [][]models.GeoCoordinate {
	out := make([][]models.GeoCoordinate, 0, len(b.polygon))
	for _, poly := range b.polygon {
		ring := make([]models.GeoCoordinate, 0, len(poly[0]))
		for _, p := range poly[0] {
			ring = append(ring, models.GeoCoordinate{Latitude: p.Lat(), Longitude: p.Lon()})
		}
		out = append(out, ring)
	}
	return out
}

// onBoundary reports whether pt lies on any segment of any ring of poly
func onBoundary(poly orb.Polygon, pt orb.Point) bool {
	for _, ring := range poly {
		for i := 0; i < len(ring)-1; i++ {
			if onSegment(ring[i], ring[i+1], pt) {
				return true
			}
		}
	}
	return false
}

func onSegment(a, b, p orb.Point) bool {
	cross := (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
	if cross != 0 {
		return false
	}
	return p[0] >= min(a[0], b[0]) && p[0] <= max(a[0], b[0]) &&
		p[1] >= min(a[1], b[1]) && p[1] <= max(a[1], b[1])
}
