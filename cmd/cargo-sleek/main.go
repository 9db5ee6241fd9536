// Command cargo-sleek wraps cargo, recording which subcommands you run.
package main

import (
	"os"

	"github.com/scbrown/cargo-sleek/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
