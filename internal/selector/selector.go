// Package selector computes which grid tiles a region of interest touches.
package selector

import (
	"sort"

	"github.com/peterstace/simplefeatures/geom"

	"tileforge/internal/grid"
)

// Covering returns every grid tile whose polygon intersects the region,
// inclusive of shared-boundary-only contact. The region must already be in
// the canonical CRS. The full grid is scanned with the exact predicate and
// the result is sorted by tile ID, so identical inputs always produce
// identical output. An empty result is a valid outcome, not an error.
func Covering(region geom.Geometry) ([]grid.Tile, error) {
	if region.IsEmpty() {
		return nil, nil
	}

	var covering []grid.Tile
	for _, tile := range grid.All() {
		if geom.Intersects(tile.Geometry(), region) {
			covering = append(covering, tile)
		}
	}
	sort.Slice(covering, func(i, j int) bool { return covering[i].ID < covering[j].ID })
	return covering, nil
}

// CoveringIDs is Covering reduced to the identifiers.
func CoveringIDs(region geom.Geometry) ([]string, error) {
	tiles, err := Covering(region)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(tiles))
	for i, t := range tiles {
		ids[i] = t.ID
	}
	return ids, nil
}
