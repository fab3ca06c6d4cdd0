package layout

import "testing"

func TestKeys_BitExact(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"data object", DataObject("gedi/db", "N00_W064", 2021), "gedi/db/data/tile_id=N00_W064/year=2021/data_0.parquet"},
		{"metadata object", MetadataObject("gedi/db", "N00_W064"), "gedi/db/metadata/tile_id=N00_W064/data_0.parquet"},
		{"checkpoint object", CheckpointObject("gedi/db", "N00_W064"), "gedi/db/checkpoints/N00_W064/checkpoint"},
		{"data prefix", DataPrefix("gedi/db"), "gedi/db/data/"},
		{"metadata prefix", MetadataPrefix("gedi/db"), "gedi/db/metadata/"},
		{"tile metadata prefix", TileMetadataPrefix("gedi/db", "S10_E042"), "gedi/db/metadata/tile_id=S10_E042/"},
		{"tile data prefix", TileDataPrefix("gedi/db", "S10_E042"), "gedi/db/data/tile_id=S10_E042/"},
		{"checkpoint prefix", CheckpointPrefix("gedi/db"), "gedi/db/checkpoints/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("/gedi/db/"); got != "gedi/db" {
		t.Errorf("Normalize trimmed to %q", got)
	}
	if got := DataObject("/gedi/db/", "N00_W064", 2020); got != "gedi/db/data/tile_id=N00_W064/year=2020/data_0.parquet" {
		t.Errorf("unexpected key with unnormalized prefix: %q", got)
	}
	// Empty prefix keys must not start with a slash.
	if got := MetadataObject("", "N00_W064"); got != "metadata/tile_id=N00_W064/data_0.parquet" {
		t.Errorf("unexpected key with empty prefix: %q", got)
	}
}

func TestTileIDFromKey(t *testing.T) {
	id, ok := TileIDFromKey("db/metadata/tile_id=N00_W064/data_0.parquet")
	if !ok || id != "N00_W064" {
		t.Errorf("got (%q, %v), want (N00_W064, true)", id, ok)
	}
	if _, ok := TileIDFromKey("db/metadata/part-000.parquet"); ok {
		t.Error("expected no tile ID in unpartitioned key")
	}
	if _, ok := TileIDFromKey("db/metadata/tile_id=/x"); ok {
		t.Error("expected empty tile ID to be rejected")
	}
}
