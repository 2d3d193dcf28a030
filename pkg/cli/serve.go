package cli

import (
	"context"

	"github.com/pcscout-dev/pcscout/pkg/service/server"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       "127.0.0.1:8080",
			Sources:     cli.EnvVars("PCSCOUT_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the agent over HTTP",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := cfg.build(ctx)
			if err != nil {
				return err
			}

			srv := server.New(addr, rt.query, rt.search, rt.orchestrator)
			return srv.Run(ctx)
		},
	}
}
