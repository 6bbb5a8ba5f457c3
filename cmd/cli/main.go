// Package main is the entry point for the statplane CLI.
// The CLI is the terminal tool for interacting with the statplane daemon.
package main

import (
	"os"

	"statplane/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
