// Package layout defines the dataset storage layout shared by the catalog,
// the orchestrator and the tile workers. Every key under the destination
// prefix is produced here; nothing else in the codebase builds storage paths.
package layout

import (
	"fmt"
	"strings"
)

// Partition column names used in hive-style keys and in the parquet output.
const (
	ColumnTileID = "tile_id"
	ColumnYear   = "year"
)

// Normalize strips leading and trailing slashes from a destination prefix.
func Normalize(prefix string) string {
	return strings.Trim(prefix, "/")
}

func join(prefix, rest string) string {
	prefix = Normalize(prefix)
	if prefix == "" {
		return rest
	}
	return prefix + "/" + rest
}

// DataPrefix is the root of all data partitions.
func DataPrefix(prefix string) string {
	return join(prefix, "data/")
}

// TileDataPrefix is the root of one tile's data partitions.
func TileDataPrefix(prefix, tileID string) string {
	return join(prefix, fmt.Sprintf("data/%s=%s/", ColumnTileID, tileID))
}

// DataObject is the parquet object holding one tile-year partition.
func DataObject(prefix, tileID string, year int) string {
	return join(prefix, fmt.Sprintf("data/%s=%s/%s=%d/data_0.parquet", ColumnTileID, tileID, ColumnYear, year))
}

// MetadataPrefix is the root of the completion-marker partitions.
func MetadataPrefix(prefix string) string {
	return join(prefix, "metadata/")
}

// TileMetadataPrefix is the root of one tile's metadata partition. The mere
// presence of any object below it means the tile is complete.
func TileMetadataPrefix(prefix, tileID string) string {
	return join(prefix, fmt.Sprintf("metadata/%s=%s/", ColumnTileID, tileID))
}

// MetadataObject is the parquet object acting as a tile's completion marker.
func MetadataObject(prefix, tileID string) string {
	return join(prefix, fmt.Sprintf("metadata/%s=%s/data_0.parquet", ColumnTileID, tileID))
}

// CheckpointPrefix is the root of all checkpoint records.
func CheckpointPrefix(prefix string) string {
	return join(prefix, "checkpoints/")
}

// CheckpointObject is the durable progress record for one tile.
func CheckpointObject(prefix, tileID string) string {
	return join(prefix, fmt.Sprintf("checkpoints/%s/checkpoint", tileID))
}

// TileIDFromKey extracts the tile identifier from a hive-partitioned key,
// e.g. "db/metadata/tile_id=N00_W064/data_0.parquet" yields "N00_W064".
func TileIDFromKey(key string) (string, bool) {
	for _, part := range strings.Split(key, "/") {
		if rest, ok := strings.CutPrefix(part, ColumnTileID+"="); ok && rest != "" {
			return rest, true
		}
	}
	return "", false
}
