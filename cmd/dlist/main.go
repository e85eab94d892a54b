// Package main provides the CLI for dlist.
package main

import (
	"os"

	"github.com/leapstack-labs/dlist/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
