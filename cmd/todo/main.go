package main

import (
	"os"

	"github.com/idilsaglam/tada/internal/cli"
)

func main() {
	// Hand the args to the CLI runner; it maps errors to exit codes.
	os.Exit(cli.Run(os.Args[1:]))
}
