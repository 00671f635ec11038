// Command crible runs the property index as a server, a one-shot query
// tool, or a backend-to-backend copy utility, per spec.md §6's CLI
// surface.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "crible",
		Usage: "a boolean property index over 32-bit element ids",
		Commands: []*cli.Command{
			serveCommand,
			queryCommand,
			copyCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
