package main

import (
	"os"

	"github.com/atelier/client/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
