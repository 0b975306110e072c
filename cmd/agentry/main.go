// Package main provides the entry point for the agentry CLI.
package main

import (
	"os"

	"github.com/randalmurphal/agentry/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
