package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/humbornjo/mizuhello/config"
)

func newConfigCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration as YAML",
		Flags: configFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, _, err := config.Load(configOptions(cmd)...)
			if err != nil {
				return cli.Exit(fmt.Errorf("failed to load config: %w", err), 1)
			}
			return c.RevealConfig(cmd.Root().Writer)
		},
	}
}
