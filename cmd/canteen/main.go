package main

import (
	"os"

	"github.com/campuscode/canteen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
