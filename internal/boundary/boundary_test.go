package boundary

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/evyataryagoni/boundary-checker/internal/models"
	"github.com/paulmach/orb"
)

const unitSquare = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "properties": {},
    "geometry": {"type": "Polygon", "coordinates": [[[0,0],[0,1],[1,1],[1,0],[0,0]]]}
  }]
}`

// two disjoint squares: [0,1]x[0,1] and [10,11]x[10,11]
const twoParts = `{
  "type": "Feature",
  "properties": {},
  "geometry": {"type": "MultiPolygon", "coordinates": [
    [[[0,0],[0,1],[1,1],[1,0],[0,0]]],
    [[[10,10],[10,11],[11,11],[11,10],[10,10]]]
  ]}
}`

// writeBoundary writes content into a temp file and returns its path
func writeBoundary(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boundary.geojson")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

// openFile loads and normalizes path the way the binaries do
func openFile(path string) (*Boundary, error) {
	src, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Normalize(src)
}

func openBoundary(t *testing.T, content string) *Boundary {
	t.Helper()
	b, err := openFile(writeBoundary(t, content))
	if err != nil {
		t.Fatalf("failed to open boundary: %v", err)
	}
	return b
}

func pt(lat, lon float64) models.GeoCoordinate {
	return models.GeoCoordinate{Latitude: lat, Longitude: lon}
}

// TestBoundary_ContainsUnitSquare tests strict interior and exterior points
func TestBoundary_ContainsUnitSquare(t *testing.T) {
	b := openBoundary(t, unitSquare)

	tests := []struct {
		name  string
		point models.GeoCoordinate
		want  bool
	}{
		{"centre", pt(0.5, 0.5), true},
		{"near corner", pt(0.001, 0.999), true},
		{"far outside", pt(5, 5), false},
		{"negative", pt(-0.5, 0.5), false},
		{"just outside", pt(0.5, 1.0001), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Contains(tt.point); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}
}

// TestBoundary_EdgePointsAreOutside tests the boundary-exclusive policy
func TestBoundary_EdgePointsAreOutside(t *testing.T) {
	b := openBoundary(t, unitSquare)

	edges := []models.GeoCoordinate{
		pt(0, 0),    // vertex
		pt(1, 1),    // vertex
		pt(0.5, 0),  // left edge
		pt(1, 0.25), // top edge
		pt(0.75, 1), // right edge
	}

	for _, p := range edges {
		for i := 0; i < 3; i++ {
			if b.Contains(p) {
				t.Errorf("edge point %v reported inside", p)
			}
		}
	}
}

// TestBoundary_MultiPart tests containment across disjoint parts
func TestBoundary_MultiPart(t *testing.T) {
	b := openBoundary(t, twoParts)

	if b.Parts() != 2 {
		t.Fatalf("expected 2 parts, got %d", b.Parts())
	}

	tests := []struct {
		name  string
		point models.GeoCoordinate
		want  bool
	}{
		{"inside first part", pt(0.5, 0.5), true},
		{"inside second part", pt(10.5, 10.5), true},
		{"between parts", pt(5, 5), false},
		{"inside combined bbox only", pt(10.5, 0.5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Contains(tt.point); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}
}

// TestBoundary_Holes tests that interior rings exclude their area
func TestBoundary_Holes(t *testing.T) {
	b := openBoundary(t, `{"type":"Polygon","coordinates":[
		[[0,0],[0,4],[4,4],[4,0],[0,0]],
		[[1,1],[1,3],[3,3],[3,1],[1,1]]
	]}`)

	if !b.Contains(pt(0.5, 0.5)) {
		t.Error("expected point in the solid band to be inside")
	}
	if b.Contains(pt(2, 2)) {
		t.Error("expected point in the hole to be outside")
	}
	if b.Contains(pt(1, 2)) {
		t.Error("expected point on the hole edge to be outside")
	}
}

// TestOpen_ClosesOpenRings tests rings without a closing duplicate
func TestOpen_ClosesOpenRings(t *testing.T) {
	b := openBoundary(t, `{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[1,0]]]}`)

	ring := b.MultiPolygon()[0][0]
	if ring[0] != ring[len(ring)-1] {
		t.Errorf("expected ring to be closed, got %v", ring)
	}
	if !b.Contains(pt(0.5, 0.5)) {
		t.Error("expected centre to be inside")
	}
}

// TestOpen_MercatorSource tests reprojection of EPSG:3857 files
func TestOpen_MercatorSource(t *testing.T) {
	// roughly [-1,1] degrees in both axes
	b := openBoundary(t, `{
	  "type": "FeatureCollection",
	  "crs": {"type": "name", "properties": {"name": "urn:ogc:def:crs:EPSG::3857"}},
	  "features": [{"type": "Feature", "properties": {}, "geometry": {"type": "Polygon", "coordinates": [[
	    [-111319.49, -111325.14], [-111319.49, 111325.14], [111319.49, 111325.14], [111319.49, -111325.14], [-111319.49, -111325.14]
	  ]]}}]
	}`)

	bound := b.Bound()
	if bound.Max.Lon() < 0.99 || bound.Max.Lon() > 1.01 {
		t.Errorf("expected max longitude ~1, got %f", bound.Max.Lon())
	}
	if !b.Contains(pt(0.5, -0.5)) {
		t.Error("expected reprojected boundary to contain (0.5,-0.5)")
	}
	if b.Contains(pt(2, 0)) {
		t.Error("expected (2,0) outside reprojected boundary")
	}
}

// TestLoad_FirstFeatureOnly tests multi-feature collections
func TestLoad_FirstFeatureOnly(t *testing.T) {
	src, err := Load(writeBoundary(t, `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[1,0],[0,0]]]}},
		{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[5,5],[5,6],[6,6],[6,5],[5,5]]]}}
	]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.FeatureCount != 2 {
		t.Errorf("expected FeatureCount 2, got %d", src.FeatureCount)
	}

	b, err := Normalize(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Contains(pt(5.5, 5.5)) {
		t.Error("second feature must be ignored")
	}
}

// TestLoad_DataLoadErrors tests unreadable and malformed sources
func TestLoad_DataLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "this is not json"},
		{"empty collection", `{"type":"FeatureCollection","features":[]}`},
		{"missing type", `{"coordinates":[[[0,0],[0,1],[1,1]]]}`},
		{"feature without geometry", `{"type":"Feature","properties":{},"geometry":null}`},
		{"unknown crs", `{"type":"Polygon","crs":{"type":"name","properties":{"name":"EPSG:32632"}},"coordinates":[[[0,0],[0,1],[1,1],[0,0]]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := openFile(writeBoundary(t, tt.content))

			var loadErr *DataLoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected DataLoadError, got %v", err)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load("/nonexistent/path/boundary.geojson")

		var loadErr *DataLoadError
		if !errors.As(err, &loadErr) {
			t.Fatalf("expected DataLoadError, got %v", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
		}
	})
}

// TestNormalize_InvalidGeometry tests degenerate and unsupported geometries
func TestNormalize_InvalidGeometry(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"point", `{"type":"Point","coordinates":[0,0]}`},
		{"linestring", `{"type":"LineString","coordinates":[[0,0],[1,1]]}`},
		{"two distinct vertices", `{"type":"Polygon","coordinates":[[[0,0],[1,1],[0,0],[1,1]]]}`},
		{"degenerate second part", `{"type":"MultiPolygon","coordinates":[
			[[[0,0],[0,1],[1,1],[0,0]]],
			[[[5,5],[5,5],[5,5]]]
		]}`},
		{"projected coordinates without crs", `{"type":"Polygon","coordinates":[[[500000,4649776],[500100,4649776],[500100,4649876],[500000,4649776]]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := openFile(writeBoundary(t, tt.content))

			var geomErr *InvalidGeometryError
			if !errors.As(err, &geomErr) {
				t.Fatalf("expected InvalidGeometryError, got %v", err)
			}
		})
	}
}

// TestNormalize_DoesNotMutateSource tests that the loaded source stays intact
func TestNormalize_DoesNotMutateSource(t *testing.T) {
	src := &Source{
		Path:     "memory",
		CRS:      CRSWGS84,
		Geometry: orb.Polygon{{{0, 0}, {0, 1}, {1, 1}, {1, 0}}},
	}

	if _, err := Normalize(src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ring := src.Geometry.(orb.Polygon)[0]
	if len(ring) != 4 {
		t.Errorf("source ring modified, now has %d points", len(ring))
	}
}

// TestBoundary_GeometryJSON tests the cached GeoJSON encoding
func TestBoundary_GeometryJSON(t *testing.T) {
	b := openBoundary(t, twoParts)

	var geom struct {
		Type        string          `json:"type"`
		Coordinates [][][][]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(b.GeometryJSON(), &geom); err != nil {
		t.Fatalf("failed to decode geometry: %v", err)
	}
	if geom.Type != "MultiPolygon" {
		t.Errorf("expected MultiPolygon, got %s", geom.Type)
	}
	if len(geom.Coordinates) != 2 {
		t.Errorf("expected 2 parts, got %d", len(geom.Coordinates))
	}

	if got := len(b.Exteriors()); got != 2 {
		t.Errorf("expected 2 exterior rings, got %d", got)
	}
}

// TestEvaluate tests the membership verdict wrapper
func TestEvaluate(t *testing.T) {
	b := openBoundary(t, unitSquare)

	in := Evaluate(pt(0.5, 0.5), b)
	if !in.Inside || in.Boundary != b || in.Coordinate != pt(0.5, 0.5) {
		t.Errorf("unexpected result for inside point: %+v", in)
	}

	out := Evaluate(pt(5, 5), b)
	if out.Inside {
		t.Error("expected (5,5) to be outside")
	}

	if Evaluate(pt(0.5, 0.5), b) != in {
		t.Error("expected repeated evaluations to be identical")
	}
}
