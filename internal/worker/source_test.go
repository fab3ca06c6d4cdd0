package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tileforge/internal/grid"
)

const granuleHeader = "shot_number,beam_name,absolute_time,lon_lowestmode,lat_lowestmode,elev_lowestmode,quality_flag,sensitivity,sensitivity_a2,degrade_flag,surface_flag\n"

func writeGranule(t *testing.T, dir, name, rows string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(granuleHeader+rows), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCSVSource_FiltersYearAndBounds(t *testing.T) {
	dir := t.TempDir()
	writeGranule(t, dir, "12345_01.csv",
		"1,BEAM0101,2019-06-01T12:00:00Z,-63.5,0.5,210.5,1,0.95,0.97,0,1\n"+ // kept
			"2,BEAM0101,2020-06-01T12:00:00Z,-63.5,0.5,210.5,1,0.95,0.97,0,1\n"+ // wrong year
			"3,BEAM0101,2019-06-01T12:00:00Z,-62.5,0.5,210.5,1,0.95,0.97,0,1\n") // outside tile

	tile, _ := grid.TileAt(-64, 1)
	src := &CSVSource{Dir: dir}
	obs, err := src.Observations(context.Background(), tile, 2019)
	if err != nil {
		t.Fatalf("Observations: %v", err)
	}
	if len(obs) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(obs))
	}
	got := obs[0]
	if got.ShotNumber != 1 || got.GranuleKey != "12345_01" || got.BeamName != "BEAM0101" {
		t.Errorf("unexpected observation: %+v", got)
	}
	if got.Sensitivity != 0.95 || got.QualityFlag != 1 {
		t.Errorf("fields not parsed: %+v", got)
	}
}

func TestCSVSource_MaxGranules(t *testing.T) {
	dir := t.TempDir()
	// Sorted order decides which granules a test run reads.
	writeGranule(t, dir, "a.csv", "1,BEAM0101,2019-06-01T12:00:00Z,-63.5,0.5,210.5,1,0.95,0.97,0,1\n")
	writeGranule(t, dir, "b.csv", "2,BEAM0101,2019-06-01T12:00:00Z,-63.5,0.5,210.5,1,0.95,0.97,0,1\n")
	writeGranule(t, dir, "c.csv", "3,BEAM0101,2019-06-01T12:00:00Z,-63.5,0.5,210.5,1,0.95,0.97,0,1\n")

	tile, _ := grid.TileAt(-64, 1)
	src := &CSVSource{Dir: dir, MaxGranules: 2}
	obs, err := src.Observations(context.Background(), tile, 2019)
	if err != nil {
		t.Fatalf("Observations: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations with MaxGranules=2, got %d", len(obs))
	}
	if obs[0].GranuleKey != "a" || obs[1].GranuleKey != "b" {
		t.Errorf("expected granules a and b, got %s and %s", obs[0].GranuleKey, obs[1].GranuleKey)
	}
}

func TestCSVSource_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.csv"),
		[]byte("shot_number,beam_name\n1,BEAM0101\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tile, _ := grid.TileAt(-64, 1)
	src := &CSVSource{Dir: dir}
	if _, err := src.Observations(context.Background(), tile, 2019); err == nil {
		t.Error("expected error for missing columns")
	}
}

func TestCSVSource_BadRow(t *testing.T) {
	dir := t.TempDir()
	writeGranule(t, dir, "bad.csv", "not-a-number,BEAM0101,2019-06-01T12:00:00Z,-63.5,0.5,210.5,1,0.95,0.97,0,1\n")
	tile, _ := grid.TileAt(-64, 1)
	src := &CSVSource{Dir: dir}
	if _, err := src.Observations(context.Background(), tile, 2019); err == nil {
		t.Error("expected error for unparseable row")
	}
}

func TestCSVSource_EmptyDir(t *testing.T) {
	tile, _ := grid.TileAt(-64, 1)
	src := &CSVSource{Dir: t.TempDir()}
	obs, err := src.Observations(context.Background(), tile, 2019)
	if err != nil {
		t.Fatalf("Observations: %v", err)
	}
	if len(obs) != 0 {
		t.Errorf("expected no observations, got %d", len(obs))
	}
}
