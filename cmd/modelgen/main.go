// Package main provides the modelgen CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapmodel/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
