package main

import (
	"os"

	"github.com/mroshb/jeju_points/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
