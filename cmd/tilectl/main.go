// Package main is the entry point for the tileforge CLI.
// The CLI is the operator terminal tool for planning, dispatching, and
// inspecting tiled dataset builds.
package main

import (
	"os"

	"tileforge/cmd/tilectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
