package cmd

import (
	"strings"
	"testing"

	"github.com/spf13/viper"

	"tileforge/internal/layout"
)

func TestStatusCommand_TileArguments(t *testing.T) {
	resetViper()
	dir := t.TempDir()
	seedObject(t, dir, layout.MetadataObject("db", "N01_W064"))
	seedObject(t, dir, layout.CheckpointObject("db", "N01_W063"))

	viper.Set("local", dir)
	viper.Set("prefix", "db")

	output := execute(t, "status", "N01_W064", "N01_W063", "N00_W062")

	if !strings.Contains(output, "N01_W064  complete") {
		t.Errorf("expected complete state, got: %s", output)
	}
	if !strings.Contains(output, "N01_W063  in_progress") {
		t.Errorf("expected in_progress state, got: %s", output)
	}
	if !strings.Contains(output, "N00_W062  not_started") {
		t.Errorf("expected not_started state, got: %s", output)
	}
}

func TestStatusCommand_RegionSummary(t *testing.T) {
	resetViper()
	dir := t.TempDir()
	seedObject(t, dir, layout.MetadataObject("db", "N01_W064"))
	seedObject(t, dir, layout.MetadataObject("db", "N00_W062"))
	seedObject(t, dir, layout.CheckpointObject("db", "N01_W063"))

	viper.Set("local", dir)
	viper.Set("prefix", "db")

	output := execute(t, "status", "--region", sixTileWKT)

	if !strings.Contains(output, "Required:    6 tiles") {
		t.Errorf("expected required count, got: %s", output)
	}
	if !strings.Contains(output, "Complete:    2") {
		t.Errorf("expected complete count, got: %s", output)
	}
	if !strings.Contains(output, "In progress: 1") {
		t.Errorf("expected in-progress count, got: %s", output)
	}
	if !strings.Contains(output, "Not started: 3") {
		t.Errorf("expected not-started count, got: %s", output)
	}
}

func TestStatusCommand_RequiresTarget(t *testing.T) {
	resetViper()

	output := execute(t, "status", "--region", "")
	if !strings.Contains(output, "pass tile IDs or --region") {
		t.Errorf("expected usage error, got: %s", output)
	}
}
