package main

import (
	"os"

	"github.com/opsmaestro/maestro/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
