// Package main is the entry point for the smap CLI tool.
package main

import (
	"os"

	"github.com/smap/smap/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
