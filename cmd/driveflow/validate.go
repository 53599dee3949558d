package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukex/driveflow/pkg/cmd"
	"github.com/dukex/driveflow/pkg/log"
	"github.com/urfave/cli/v3"
)

func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check the configuration and that the store is reachable",
		Flags: configFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg, err := loadConfig(command)
			if err != nil {
				return err
			}

			log.Setup(cfg.LogLevel, cfg.LogFormat)

			logger := log.WithModule("validate")

			store, err := cmd.NewPersistence(ctx, logger, cfg.DatabaseURL)
			if err != nil {
				return err
			}

			defer func() {
				err := store.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			err = store.HealthCheck(ctx)
			if err != nil {
				return fmt.Errorf("store is not healthy: %w", err)
			}

			logger.InfoContext(ctx, "Configuration is valid",
				"database_url_scheme", schemeOf(cfg.DatabaseURL),
				"event_bus", cfg.EventBus,
				"scheduler", cfg.Scheduler.Provider,
			)

			return nil
		},
	}
}

func schemeOf(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
