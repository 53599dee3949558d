package main

import (
	"context"
	"errors"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dukex/driveflow/pkg/log"
	"github.com/dukex/driveflow/pkg/web"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Start the notification and resume server",
		Flags:   configFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg, err := loadConfig(command)
			if err != nil {
				return err
			}

			log.Setup(cfg.LogLevel, cfg.LogFormat)

			logger := log.WithModule("server")
			logger.InfoContext(ctx, "Initializing driveflow", "port", cfg.Port, "scheduler", cfg.Scheduler.Provider)

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			engine, err := NewEngine(ctx, cfg, logger)
			if err != nil {
				return err
			}

			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				engine.Close(closeCtx)
			}()

			app := web.NewApp(web.NewHandlers(engine.Dispatcher, engine.Store, logger))

			serveErr := make(chan error, 1)

			go func() {
				serveErr <- app.Listen(":" + strconv.Itoa(cfg.Port))
			}()

			select {
			case err = <-serveErr:
				return err
			case <-ctx.Done():
				logger.Info("Shutting down driveflow")

				err = app.ShutdownWithTimeout(shutdownTimeout)
				if err != nil && !errors.Is(err, context.Canceled) {
					return err
				}

				return nil
			}
		},
	}
}
