package main

import (
	"fmt"

	"github.com/dukex/driveflow/pkg/config"
	cli "github.com/urfave/cli/v3"
)

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
			Sources: cli.EnvVars("DRIVEFLOW_CONFIG"),
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the HTTP server on",
			Value:   config.DefaultPort,
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Store URL (file://, postgres://, redis://)",
			Value:   config.DefaultDatabaseURL,
			Sources: cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (gochannel, kafka)",
			Value:   "gochannel",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "callback-base-url",
			Usage:   "Public base URL the scheduler calls to resume workflows",
			Value:   config.DefaultCallbackBaseURL,
			Sources: cli.EnvVars("CALLBACK_BASE_URL"),
		},
		&cli.StringFlag{
			Name:    "scheduler",
			Usage:   "Wake-up provider (cronjob, local)",
			Value:   "local",
			Sources: cli.EnvVars("SCHEDULER_PROVIDER"),
		},
		&cli.StringFlag{
			Name:    "cron-job-key",
			Usage:   "API key for the cron job service",
			Sources: cli.EnvVars("CRON_JOB_KEY"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Export traces over OTLP",
			Sources: cli.EnvVars("TRACING_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format (text, json, tint)",
			Value:   "text",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
	}
}

// loadConfig reads the optional file and lets explicitly set flags win.
func loadConfig(command *cli.Command) (config.Config, error) {
	cfg, err := config.Load(command.String("config"))
	if err != nil {
		return cfg, err
	}

	if command.IsSet("port") {
		cfg.Port = command.Int("port")
	}

	overrides := map[string]*string{
		"database-url":      &cfg.DatabaseURL,
		"event-bus":         &cfg.EventBus,
		"kafka-brokers":     &cfg.KafkaBrokers,
		"callback-base-url": &cfg.CallbackBaseURL,
		"scheduler":         &cfg.Scheduler.Provider,
		"cron-job-key":      &cfg.Scheduler.APIKey,
		"log-level":         &cfg.LogLevel,
		"log-format":        &cfg.LogFormat,
	}

	for name, field := range overrides {
		if command.IsSet(name) {
			*field = command.String(name)
		}
	}

	if command.IsSet("tracing") {
		cfg.Tracing = command.Bool("tracing")
	}

	err = cfg.Validate()
	if err != nil {
		return cfg, fmt.Errorf("configuration rejected: %w", err)
	}

	return cfg, nil
}
