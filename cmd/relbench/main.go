// Package main is the relbench command.
package main

import (
	"os"

	"github.com/jakubpeleska/relbench/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
