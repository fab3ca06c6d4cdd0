// Package region loads the region-of-interest geometry an orchestration run
// is scoped to. Regions arrive as WKT text, WKT/GeoJSON files or ESRI
// shapefiles, in any supported CRS, and are reprojected to the canonical
// EPSG:4326 before any intersection test.
package region

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// CanonicalEPSG is the CRS all geometries are normalized into.
const CanonicalEPSG = 4326

// Load reads a region from source, which is either inline WKT or a path to a
// .wkt/.txt, .json/.geojson or .shp file. The result is polygonal (possibly
// empty) and still in the source CRS; pass it through Reproject before use.
func Load(source string) (geom.Geometry, error) {
	if looksLikeWKT(source) {
		return FromWKT(source)
	}

	switch strings.ToLower(filepath.Ext(source)) {
	case ".wkt", ".txt":
		raw, err := os.ReadFile(source)
		if err != nil {
			return geom.Geometry{}, fmt.Errorf("read region file: %w", err)
		}
		return FromWKT(string(raw))
	case ".json", ".geojson":
		raw, err := os.ReadFile(source)
		if err != nil {
			return geom.Geometry{}, fmt.Errorf("read region file: %w", err)
		}
		g, err := geom.UnmarshalGeoJSON(raw)
		if err != nil {
			return geom.Geometry{}, fmt.Errorf("parse region GeoJSON: %w", err)
		}
		return checkPolygonal(g)
	case ".shp":
		return fromShapefile(source)
	}
	return geom.Geometry{}, fmt.Errorf("region source %q: not WKT and not a .wkt/.txt/.json/.geojson/.shp file", source)
}

// FromWKT parses an inline WKT region.
func FromWKT(s string) (geom.Geometry, error) {
	g, err := geom.UnmarshalWKT(strings.TrimSpace(s))
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("parse region WKT: %w", err)
	}
	return checkPolygonal(g)
}

func looksLikeWKT(s string) bool {
	upper := strings.ToUpper(strings.TrimSpace(s))
	return strings.HasPrefix(upper, "POLYGON") ||
		strings.HasPrefix(upper, "MULTIPOLYGON") ||
		strings.HasPrefix(upper, "GEOMETRYCOLLECTION")
}

func checkPolygonal(g geom.Geometry) (geom.Geometry, error) {
	switch g.Type() {
	case geom.TypePolygon, geom.TypeMultiPolygon:
		return g, nil
	}
	return geom.Geometry{}, fmt.Errorf("region must be a polygon or multipolygon, got %s", g.Type())
}

// fromShapefile reads every polygon record of a shapefile into one
// multipolygon. Interior rings are dropped: holes in a region would only
// ever exclude tiles that the surrounding area requires anyway.
func fromShapefile(path string) (geom.Geometry, error) {
	r, err := shp.Open(path)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	var rings [][]shp.Point
	for r.Next() {
		_, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			return geom.Geometry{}, fmt.Errorf("shapefile record is %T, want polygon", shape)
		}
		rings = append(rings, splitParts(poly)...)
	}
	if err := r.Err(); err != nil {
		return geom.Geometry{}, fmt.Errorf("read shapefile: %w", err)
	}
	wkt, err := ringsToWKT(rings)
	if err != nil {
		return geom.Geometry{}, err
	}
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("shapefile geometry invalid: %w", err)
	}
	return checkPolygonal(g)
}

func splitParts(poly *shp.Polygon) [][]shp.Point {
	var rings [][]shp.Point
	for i, start := range poly.Parts {
		end := len(poly.Points)
		if i+1 < len(poly.Parts) {
			end = int(poly.Parts[i+1])
		}
		rings = append(rings, poly.Points[start:end])
	}
	return rings
}

// ringsToWKT assembles closed exterior rings into multipolygon WKT.
func ringsToWKT(rings [][]shp.Point) (string, error) {
	if len(rings) == 0 {
		return "MULTIPOLYGON EMPTY", nil
	}
	var sb strings.Builder
	sb.WriteString("MULTIPOLYGON(")
	for i, ring := range rings {
		if len(ring) < 3 {
			return "", fmt.Errorf("shapefile ring %d has %d points, need at least 3", i, len(ring))
		}
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("((")
		for j, p := range ring {
			if j > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "%v %v", p.X, p.Y)
		}
		// Close the ring if the source left it open.
		if first, last := ring[0], ring[len(ring)-1]; first.X != last.X || first.Y != last.Y {
			fmt.Fprintf(&sb, ",%v %v", first.X, first.Y)
		}
		sb.WriteString("))")
	}
	sb.WriteString(")")
	return sb.String(), nil
}

// Reproject transforms a geometry from the given EPSG code into the canonical
// CRS. EPSG:4326 input is returned unchanged.
func Reproject(g geom.Geometry, epsg int) (geom.Geometry, error) {
	if epsg == CanonicalEPSG {
		return g, nil
	}
	from := wgs84.EPSG().Code(epsg)
	if from == nil {
		return geom.Geometry{}, fmt.Errorf("unsupported EPSG code %d", epsg)
	}
	transform := wgs84.Transform(from, wgs84.LonLat())
	out := g.TransformXY(func(xy geom.XY) geom.XY {
		lon, lat, _ := transform(xy.X, xy.Y, 0)
		return geom.XY{X: lon, Y: lat}
	})
	return out, nil
}
