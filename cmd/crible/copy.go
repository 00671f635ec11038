package main

import (
	"github.com/urfave/cli/v2"

	"github.com/lirsacc/crible/internal/config"
)

var copyCommand = &cli.Command{
	Name:  "copy",
	Usage: "load from one backend and dump into another, e.g. for format migration",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "from", Required: true},
		&cli.StringFlag{Name: "to", Required: true},
	},
	Action: runCopy,
}

func runCopy(c *cli.Context) error {
	from, err := (config.Server{BackendURL: c.String("from")}).BuildBackend()
	if err != nil {
		return err
	}
	to, err := (config.Server{BackendURL: c.String("to")}).BuildBackend()
	if err != nil {
		return err
	}

	idx, err := from.Load(c.Context)
	if err != nil {
		return err
	}

	for _, name := range idx.Properties() {
		if s, ok := idx.Get(name); ok {
			s.Optimize()
			idx.SetProperty(name, s)
		}
	}

	if err := to.Clear(c.Context); err != nil {
		return err
	}
	return to.Dump(c.Context, idx)
}
