// Package main provides the entry point for the stopctl CLI.
package main

import (
	"os"

	"github.com/remiges-tech/stopsearch/cmd/stopctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
