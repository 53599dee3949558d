package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukex/driveflow/pkg/config"
	"github.com/dukex/driveflow/pkg/connectors/cronjob"
	"github.com/dukex/driveflow/pkg/scheduler"
)

// NewScheduler builds the wake-up provider. The returned stop function
// releases a local scheduler and is a no-op otherwise.
func NewScheduler(cfg config.Config, httpClient *http.Client, logger *slog.Logger) (scheduler.Scheduler, func(context.Context), error) {
	switch cfg.Scheduler.Provider {
	case scheduler.ProviderCronJob:
		jobs := cronjob.NewClient(cfg.Connectors.CronJobBaseURL, cfg.Scheduler.APIKey, httpClient)

		return scheduler.NewCronJobScheduler(jobs, cfg.Scheduler.Timezone, cfg.Scheduler.Expiry, logger), func(context.Context) {}, nil
	case scheduler.ProviderLocal:
		local := scheduler.NewLocalScheduler(cfg.Scheduler.Delay, httpClient, logger)
		local.Start()

		return local, local.Stop, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", scheduler.ErrUnknownProvider, cfg.Scheduler.Provider)
	}
}
