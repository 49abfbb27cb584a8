// Package main provides the rdfpub command.
package main

import (
	"os"

	"github.com/rdfpub/generator/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
