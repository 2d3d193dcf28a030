package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func searchCommand() *cli.Command {
	var (
		cfg        config
		maxResults int
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "max-results",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of items to return",
			Value:       10,
			Destination: &maxResults,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Find stored items similar to a query",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			queryText := c.Args().First()
			if queryText == "" {
				return goerr.New("query argument is required")
			}

			rt, err := cfg.build(ctx)
			if err != nil {
				return err
			}

			items, err := rt.search.Search(ctx, queryText, maxResults)
			if err != nil {
				return err
			}

			if len(items) == 0 {
				fmt.Fprintf(c.Root().Writer, "No items found\n")
				return nil
			}

			out, err := json.MarshalIndent(items, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to render items")
			}
			fmt.Fprintf(c.Root().Writer, "%s\n", out)
			return nil
		},
	}
}
