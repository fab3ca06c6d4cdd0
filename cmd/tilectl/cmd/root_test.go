package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
)

func resetViper() {
	viper.Reset()
	viper.SetEnvPrefix("TILEFORGE")
	viper.AutomaticEnv()
}

// sixTileWKT covers the block of tiles N00_W062..N01_W064.
const sixTileWKT = "POLYGON((-63.9 -0.9,-61.1 -0.9,-61.1 0.9,-63.9 0.9,-63.9 -0.9))"

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return stdout.String()
}
