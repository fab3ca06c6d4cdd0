// Package grid defines the canonical global tiling scheme: 360x180 unit-degree
// tiles covering longitude [-180, 180) and latitude [-90, 90). The grid is
// fixed, disjoint and exhaustive by construction; it does not depend on any
// input data.
package grid

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/peterstace/simplefeatures/geom"
)

// Grid extent, expressed as tile top-left corners.
const (
	MinXMin = -180
	MaxXMin = 179
	MinYMax = -89
	MaxYMax = 90

	// Tiles is the total number of tiles in the grid.
	Tiles = 360 * 180
)

var idPattern = regexp.MustCompile(`^([NS])(\d{2})_([EW])(\d{3})$`)

// Tile is one unit-degree grid cell. Tiles are immutable values; the identity
// is a deterministic function of the top-left corner (XMin, YMax).
type Tile struct {
	ID   string
	XMin int
	YMin int
	XMax int
	YMax int
}

// idFor derives the tile identifier from a top-left corner. A coordinate of
// exactly 0 belongs to the non-negative hemisphere (N/E) by convention.
func idFor(xmin, ymax int) string {
	latHemi := "N"
	if ymax < 0 {
		latHemi = "S"
	}
	lonHemi := "E"
	if xmin < 0 {
		lonHemi = "W"
	}
	return fmt.Sprintf("%s%02d_%s%03d", latHemi, abs(ymax), lonHemi, abs(xmin))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// TileAt returns the tile whose top-left corner is (xmin, ymax).
func TileAt(xmin, ymax int) (Tile, error) {
	if xmin < MinXMin || xmin > MaxXMin {
		return Tile{}, fmt.Errorf("tile xmin %d outside [-180, 179]", xmin)
	}
	if ymax < MinYMax || ymax > MaxYMax {
		return Tile{}, fmt.Errorf("tile ymax %d outside [-89, 90]", ymax)
	}
	return Tile{
		ID:   idFor(xmin, ymax),
		XMin: xmin,
		YMin: ymax - 1,
		XMax: xmin + 1,
		YMax: ymax,
	}, nil
}

// ParseID decodes a tile identifier back to its tile. Only canonical
// identifiers are accepted: an ID must re-encode to itself, so forms like
// "S00_..." or "..._W000" for the zero meridian/equator are rejected.
func ParseID(id string) (Tile, error) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return Tile{}, fmt.Errorf("tile ID %q invalid: must be [NS]DD_[EW]DDD", id)
	}
	lat, _ := strconv.Atoi(m[2])
	lon, _ := strconv.Atoi(m[4])
	if m[1] == "S" {
		lat = -lat
	}
	if m[3] == "W" {
		lon = -lon
	}
	t, err := TileAt(lon, lat)
	if err != nil {
		return Tile{}, fmt.Errorf("tile ID %q invalid: %w", id, err)
	}
	if t.ID != id {
		return Tile{}, fmt.Errorf("tile ID %q is not canonical (expected %q)", id, t.ID)
	}
	return t, nil
}

// Geometry returns the tile's axis-aligned polygon in the canonical CRS.
func (t Tile) Geometry() geom.Geometry {
	wkt := fmt.Sprintf("POLYGON((%d %d,%d %d,%d %d,%d %d,%d %d))",
		t.XMin, t.YMin,
		t.XMax, t.YMin,
		t.XMax, t.YMax,
		t.XMin, t.YMax,
		t.XMin, t.YMin,
	)
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		// Unreachable: integer unit squares always form valid WKT.
		panic(fmt.Sprintf("grid: tile %s produced invalid geometry: %v", t.ID, err))
	}
	return g
}

// Contains reports whether a point falls inside the tile using the same
// half-open bounds the tile builder uses to bin observations:
// lon in [XMin, XMax), lat in (YMin, YMax]. Together with the N/E zero
// convention this assigns every point on a shared edge to exactly one tile.
func (t Tile) Contains(lon, lat float64) bool {
	return lon >= float64(t.XMin) && lon < float64(t.XMax) &&
		lat > float64(t.YMin) && lat <= float64(t.YMax)
}

// All enumerates the complete grid, west to east and north to south within
// each column. The order is fixed; callers may rely on it being deterministic.
func All() []Tile {
	tiles := make([]Tile, 0, Tiles)
	for x := MinXMin; x <= MaxXMin; x++ {
		for y := MaxYMax; y >= MinYMax; y-- {
			t, _ := TileAt(x, y)
			tiles = append(tiles, t)
		}
	}
	return tiles
}
