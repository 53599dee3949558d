package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/dukex/driveflow/pkg/log"
	"github.com/urfave/cli/v3"
)

var errMissingWorkflowID = errors.New("workflow id argument is required")

func ResumeCommand() *cli.Command {
	return &cli.Command{
		Name:      "resume",
		Usage:     "Resume a suspended workflow once, as the scheduler callback would",
		ArgsUsage: "<workflow-id>",
		Flags:     configFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			workflowID := strings.TrimSpace(command.Args().First())
			if workflowID == "" {
				return errMissingWorkflowID
			}

			cfg, err := loadConfig(command)
			if err != nil {
				return err
			}

			log.Setup(cfg.LogLevel, cfg.LogFormat)

			logger := log.WithModule("resume")

			engine, err := NewEngine(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer engine.Close(ctx)

			ack, err := engine.Dispatcher.Resume(ctx, workflowID)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")

			return encoder.Encode(ack)
		},
	}
}
