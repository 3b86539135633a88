// Package main is the entry point for the arb CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/arbor/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
