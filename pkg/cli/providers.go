package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func providersCommand() *cli.Command {
	var (
		cfg          config
		providerName string
		minPrice     int
		maxPrice     int
		listOnly     bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "provider",
			Usage:       "Run only the named provider",
			Destination: &providerName,
		},
		&cli.IntFlag{
			Name:        "min-price",
			Usage:       "Lower price bound in EUR",
			Value:       0,
			Destination: &minPrice,
		},
		&cli.IntFlag{
			Name:        "max-price",
			Usage:       "Upper price bound in EUR",
			Value:       10000,
			Destination: &maxPrice,
		},
		&cli.BoolFlag{
			Name:        "list",
			Usage:       "List registered providers and exit",
			Destination: &listOnly,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "providers",
		Usage:     "Run retailer providers directly with a search query",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := cfg.build(ctx)
			if err != nil {
				return err
			}

			if listOnly {
				fmt.Fprintf(c.Root().Writer, "%s\n", strings.Join(rt.orchestrator.Names(), "\n"))
				return nil
			}

			queryText := c.Args().First()
			if queryText == "" {
				return goerr.New("query argument is required")
			}

			params := map[string]any{
				"query":     queryText,
				"min_price": minPrice,
				"max_price": maxPrice,
			}

			if providerName != "" {
				p, err := rt.orchestrator.Get(providerName)
				if err != nil {
					return err
				}
				data, err := p.GetData(ctx, params)
				if err != nil {
					return err
				}
				return printJSON(c, data)
			}

			results, err := rt.orchestrator.RunAll(ctx, params)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintf(c.Root().Writer, "No provider returned data\n")
				return nil
			}
			return printJSON(c, results)
		},
	}
}

func printJSON(c *cli.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to render output")
	}
	fmt.Fprintf(c.Root().Writer, "%s\n", out)
	return nil
}
