package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"formautofill/internal/fill"
	"formautofill/internal/mappings"
	"formautofill/internal/serve"
)

func main() {
	app := &cli.App{
		Name:  "formautofill",
		Usage: "infer the meaning of form fields on a page and propose safe values",
		Commands: []*cli.Command{
			{
				Name:   "fill",
				Usage:  "extract forms from a page, plan values, and write the filled document",
				Action: fill.FillAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "page URL to fetch"},
					&cli.StringFlag{Name: "file", Usage: "local HTML file instead of --url"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write filled HTML here (default stdout)"},
					&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "settings file"},
					&cli.StringFlag{Name: "db", Usage: "mapping database path (default: next to the binary)"},
					&cli.StringFlag{Name: "locale", Usage: "override the request locale"},
					&cli.IntFlag{Name: "workers", Value: 4, Usage: "concurrent plan requests"},
					&cli.BoolFlag{Name: "dry-run", Usage: "print plans as YAML without touching the document"},
					&cli.BoolFlag{Name: "quiet", Usage: "only log errors"},
				},
			},
			{
				Name:   "serve",
				Usage:  "expose fill/learn over HTTP",
				Action: serve.ServeAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: ":8732", Usage: "listen address"},
					&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "settings file"},
					&cli.StringFlag{Name: "db", Usage: "mapping database path"},
				},
			},
			{
				Name:  "mapping",
				Usage: "inspect and teach per-domain field mappings",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "print learned rules for a domain",
						Action: mappings.ListAction,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "domain", Usage: "domain to list"},
							&cli.StringFlag{Name: "db", Usage: "mapping database path"},
						},
					},
					{
						Name:   "learn",
						Usage:  "record a field meaning correction",
						Action: mappings.LearnAction,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "domain", Usage: "domain the rule belongs to"},
							&cli.StringFlag{Name: "selector", Usage: "field selector"},
							&cli.StringFlag{Name: "meaning", Usage: "field meaning (e.g. email, given_name)"},
							&cli.StringFlag{Name: "value-template", Usage: "optional value template"},
							&cli.StringFlag{Name: "db", Usage: "mapping database path"},
						},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
