package main

import (
	"os"

	"github.com/nightwatt/nightwatt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
