package main

import (
	"os"

	"github.com/apresai/dialogcast/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
