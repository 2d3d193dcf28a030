package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func queryCommand() *cli.Command {
	var (
		cfg       config
		sessionID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "session",
			Aliases:     []string{"s"},
			Usage:       "Session ID to continue a conversation",
			Sources:     cli.EnvVars("PCSCOUT_SESSION_ID"),
			Destination: &sessionID,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "query",
		Usage:     "Run a single conversational turn",
		ArgsUsage: "<message>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			message := c.Args().First()
			if message == "" {
				return goerr.New("message argument is required")
			}

			rt, err := cfg.build(ctx)
			if err != nil {
				return err
			}

			result, err := rt.query.Process(ctx, sessionID, message)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "%s\n", result.Text)
			return nil
		},
	}
}
