package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/humbornjo/mizuhello/config"
	"github.com/humbornjo/mizuhello/internal/mizu"
	"github.com/humbornjo/mizuhello/internal/mizudi"
	"github.com/humbornjo/mizuhello/internal/mizuotel"
	"github.com/humbornjo/mizuhello/service/greetsvc"
	"github.com/humbornjo/mizuhello/service/hellosvc"
)

const _TELEMETRY_SHUTDOWN_TIMEOUT = 5 * time.Second

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "config",
			Usage:   "Path to a YAML configuration file, repeatable, later files win",
			Aliases: []string{"c"},
		},
		&cli.StringFlag{
			Name:    "addr",
			Usage:   "Address to listen on, e.g. :8080",
			Aliases: []string{"a"},
		},
		&cli.StringFlag{
			Name:  "default-greeting",
			Usage: "Greeting returned by GET /hello",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
	}
}

// configOptions maps flags onto configuration keys. Only flags the
// user actually set override files and environment.
func configOptions(cmd *cli.Command) []config.Option {
	opts := []config.Option{
		config.WithLoadPaths(cmd.StringSlice("config")...),
		config.WithVersion(cmd.Root().Version),
	}
	overrides := []struct{ flag, key string }{
		{"addr", "server.addr"},
		{"default-greeting", greetsvc.KEY_DEFAULT_GREETING},
		{"log-level", "level"},
	}
	for _, o := range overrides {
		if cmd.IsSet(o.flag) {
			opts = append(opts, config.WithOverride(o.key, cmd.String(o.flag)))
		}
	}
	return opts
}

func newServeCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the greeting server",
		Flags: configFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := run(ctx, configOptions(cmd)...); err != nil {
				return cli.Exit(err, 1)
			}
			return nil
		},
	}
}

// run wires the service and serves until ctx is cancelled.
func run(ctx context.Context, opts ...config.Option) error {
	c, err := config.Initialize(opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	// Initialize services ----------------------------------------
	if err := greetsvc.Initialize(c); err != nil {
		return fmt.Errorf("failed to initialize greetsvc: %w", err)
	}
	cfg := mizudi.MustRetrieve[*config.Config](c)
	if err := hellosvc.Initialize(c, hellosvc.WithVersion(cfg.Version)); err != nil {
		return fmt.Errorf("failed to initialize hellosvc: %w", err)
	}

	srv := mizudi.MustRetrieve[*mizu.Server](c)
	serveErr := srv.ServeContext(ctx, cfg.Server.Addr)

	if telemetry, err := mizudi.Retrieve[*mizuotel.Telemetry](c); err == nil {
		downCtx, cancel := context.WithTimeout(context.Background(), _TELEMETRY_SHUTDOWN_TIMEOUT)
		defer cancel()
		if err := telemetry.Shutdown(downCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}

	if serveErr != nil {
		return fmt.Errorf("failed to serve: %w", serveErr)
	}
	return nil
}
