// Package main is the entrypoint for the toytoons scraper CLI.
package main

import (
	"os"

	"github.com/toytoons/scraper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
