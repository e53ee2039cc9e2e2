// Package main is the entry point for the tsprobe transport stream tool.
package main

import (
	"os"

	"github.com/zsiec/tsproto/cmd/tsprobe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
