// Package main is the entry point for the mirage CLI.
package main

import (
	"os"

	"github.com/IshuSinghSE/mirage/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
