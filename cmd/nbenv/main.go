package main

import (
	"os"

	"github.com/giantswarm/nbenv/cmd/nbenv/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
