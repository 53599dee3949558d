package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/driveflow/pkg/connectors/cronjob"
)

// DefaultCronJobExpiry bounds how long a registered job keeps firing.
const DefaultCronJobExpiry = 5 * time.Minute

// JobCreator registers jobs with the external cron service.
type JobCreator interface {
	CreateJob(ctx context.Context, job cronjob.Job) (int64, error)
}

// CronJobScheduler delegates wake-ups to a cron-job.org style service.
// Jobs fire every minute until they expire; calls after the first find
// nothing to resume.
type CronJobScheduler struct {
	jobs     JobCreator
	timezone string
	location *time.Location
	expiry   time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewCronJobScheduler(jobs JobCreator, timezone string, expiry time.Duration, logger *slog.Logger) *CronJobScheduler {
	if timezone == "" {
		timezone = "UTC"
	}

	location, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warn("unknown scheduler timezone, expiring jobs in UTC", "timezone", timezone, "error", err)
		location = time.UTC
	}

	if expiry <= 0 {
		expiry = DefaultCronJobExpiry
	}

	return &CronJobScheduler{
		jobs:     jobs,
		timezone: timezone,
		location: location,
		expiry:   expiry,
		now:      time.Now,
		logger:   logger,
	}
}

var _ Scheduler = (*CronJobScheduler)(nil)

func (s *CronJobScheduler) RegisterCallback(ctx context.Context, targetURL string, workflowID string) error {
	schedule := cronjob.EveryMinute(s.timezone)
	schedule.ExpiresAt = cronjob.ExpiresAt(s.now().Add(s.expiry), s.location)

	jobID, err := s.jobs.CreateJob(ctx, cronjob.Job{
		URL:      targetURL,
		Title:    "driveflow resume " + workflowID,
		Enabled:  true,
		Schedule: schedule,
	})
	if err != nil {
		return &RegistrationError{Provider: ProviderCronJob, WorkflowID: workflowID, Err: err}
	}

	s.logger.InfoContext(ctx, "registered cron job",
		"workflow_id", workflowID,
		"job_id", jobID,
		"expires_at", schedule.ExpiresAt,
	)

	return nil
}
