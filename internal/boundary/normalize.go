package boundary

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Normalize converts a loaded source into a Boundary in WGS84.
//
// Polygon and MultiPolygon geometries are accepted; every other type is an
// InvalidGeometryError. Rings are closed if the file left them open and each
// ring must keep at least three distinct vertices.
func Normalize(src *Source) (*Boundary, error) {
	if src == nil || src.Geometry == nil {
		return nil, invalid("no geometry")
	}

	var mp orb.MultiPolygon
	switch g := orb.Clone(src.Geometry).(type) {
	case orb.Polygon:
		mp = orb.MultiPolygon{g}
	case orb.MultiPolygon:
		mp = g
	default:
		return nil, invalid(fmt.Sprintf("unsupported geometry type %s, want Polygon or MultiPolygon", src.Geometry.GeoJSONType()))
	}

	if len(mp) == 0 {
		return nil, invalid("multipolygon has no parts")
	}

	switch src.CRS {
	case CRSWGS84, "":
	case CRSMercator:
		mp = project.MultiPolygon(mp, project.Mercator.ToWGS84)
	default:
		return nil, invalid("cannot reproject from " + src.CRS)
	}

	for pi, poly := range mp {
		if len(poly) == 0 {
			return nil, &InvalidGeometryError{Reason: "polygon has no rings", Part: pi, Ring: -1}
		}
		for ri, ring := range poly {
			closed := closeRing(ring)
			if n := distinctVertices(closed); n < 3 {
				return nil, &InvalidGeometryError{
					Reason: fmt.Sprintf("degenerate ring with %d distinct vertices", n),
					Part:   pi,
					Ring:   ri,
				}
			}
			for _, p := range closed {
				if p.Lon() < -180 || p.Lon() > 180 || p.Lat() < -90 || p.Lat() > 90 {
					return nil, &InvalidGeometryError{
						Reason: fmt.Sprintf("vertex %v outside longitude/latitude range", p),
						Part:   pi,
						Ring:   ri,
					}
				}
			}
			poly[ri] = closed
		}
	}

	return newBoundary(mp)
}

func closeRing(r orb.Ring) orb.Ring {
	if len(r) == 0 || r[0] == r[len(r)-1] {
		return r
	}
	return append(r, r[0])
}

func distinctVertices(r orb.Ring) int {
	seen := make(map[orb.Point]struct{}, len(r))
	for _, p := range r {
		seen[p] = struct{}{}
	}
	return len(seen)
}
