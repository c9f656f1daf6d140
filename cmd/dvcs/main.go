package main

import (
	"os"

	"github.com/trailmark/dvcs/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
