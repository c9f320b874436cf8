package main

import (
	"os"

	"github.com/harun/toolhub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
