package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/lirsacc/crible/internal/config"
	"github.com/lirsacc/crible/internal/expr"
)

var queryCommand = &cli.Command{
	Name:  "query",
	Usage: "run a single query against a backend and print matching ids",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "backend", EnvVars: []string{config.EnvBackend}, Value: "memory://", Required: true},
		&cli.StringFlag{Name: "query", Required: true},
	},
	Action: runQuery,
}

func runQuery(c *cli.Context) error {
	cfg := config.Server{BackendURL: c.String("backend")}

	be, err := cfg.BuildBackend()
	if err != nil {
		return err
	}

	idx, err := be.Load(c.Context)
	if err != nil {
		return err
	}

	e, err := expr.Parse(c.String("query"))
	if err != nil {
		return err
	}

	set, err := idx.Execute(e)
	if err != nil {
		return err
	}

	set.Iterate(func(id uint32) bool {
		fmt.Fprintln(c.App.Writer, id)
		return true
	})
	return nil
}
