package boundary

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Canonical CRS identifiers understood by Normalize
const (
	CRSWGS84    = "EPSG:4326"
	CRSMercator = "EPSG:3857"
)

// Source is a boundary geometry as read from disk, before normalization
type Source struct {
	Path         string
	CRS          string // canonical identifier, CRSWGS84 when the file declares none
	Geometry     orb.Geometry
	FeatureCount int // features in the file, only the first one is used
}

// header is the subset of top-level GeoJSON members inspected before decoding
type header struct {
	Type string `json:"type"`
	CRS  *struct {
		Type       string `json:"type"`
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"crs"`
}

// Load reads a GeoJSON boundary file.
//
// The file may be a FeatureCollection, a single Feature or a bare geometry.
// For collections only the first feature's geometry is kept. A legacy "crs"
// member is honoured when it names a supported system.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DataLoadError{Path: path, Reason: "cannot read file", Err: err}
	}
	return decode(path, data)
}

func decode(path string, data []byte) (*Source, error) {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, &DataLoadError{Path: path, Reason: "malformed GeoJSON", Err: err}
	}

	crs := CRSWGS84
	if h.CRS != nil {
		canonical, ok := canonicalCRS(h.CRS.Properties.Name)
		if !ok {
			return nil, &DataLoadError{Path: path, Reason: "unsupported coordinate reference system " + h.CRS.Properties.Name}
		}
		crs = canonical
	}

	src := &Source{Path: path, CRS: crs}

	switch h.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, &DataLoadError{Path: path, Reason: "malformed feature collection", Err: err}
		}
		if len(fc.Features) == 0 {
			return nil, &DataLoadError{Path: path, Reason: "feature collection contains zero geometries"}
		}
		src.FeatureCount = len(fc.Features)
		src.Geometry = fc.Features[0].Geometry

	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, &DataLoadError{Path: path, Reason: "malformed feature", Err: err}
		}
		src.FeatureCount = 1
		src.Geometry = f.Geometry

	case "":
		return nil, &DataLoadError{Path: path, Reason: "missing GeoJSON type member"}

	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, &DataLoadError{Path: path, Reason: "malformed geometry", Err: err}
		}
		src.FeatureCount = 1
		src.Geometry = g.Geometry()
	}

	if src.Geometry == nil {
		return nil, &DataLoadError{Path: path, Reason: "feature has no geometry"}
	}

	return src, nil
}

// canonicalCRS maps the names found in the wild (short codes, OGC URNs,
// CRS84) onto the identifiers Normalize knows how to handle.
func canonicalCRS(name string) (string, bool) {
	n := strings.ToUpper(strings.TrimSpace(name))

	switch {
	case strings.HasSuffix(n, "CRS84"), strings.HasSuffix(n, "CRS:84"):
		return CRSWGS84, true
	}

	code := n
	if i := strings.LastIndex(n, ":"); i >= 0 {
		code = n[i+1:]
	}

	switch code {
	case "4326", "4269":
		return CRSWGS84, true
	case "3857", "900913", "102100", "3785":
		return CRSMercator, true
	}
	return "", false
}
