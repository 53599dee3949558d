package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/driveflow/pkg/credits"
	"github.com/dukex/driveflow/pkg/dedupe"
	"github.com/dukex/driveflow/pkg/eventbus"
	"github.com/dukex/driveflow/pkg/events"
	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/otelhelper"
	"github.com/dukex/driveflow/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Acknowledgement messages returned to the notification and resume callers.
const (
	AckSync               = "sync acknowledged"
	AckNoResourceID       = "no resource id"
	AckDuplicate          = "duplicate notification"
	AckUserNotFound       = "user not found"
	AckInsufficientCredit = "insufficient credits"
	AckNoPublished        = "no published workflows"
	AckFlowCompleted      = "flow completed"
	AckWorkflowNotFound   = "workflow not found"
	AckNothingToResume    = "nothing to resume"
	AckFlowResumed        = "flow resumed"
)

// DefaultMaxConcurrent runs a user's workflows one at a time.
const DefaultMaxConcurrent = 1

// Runner executes one workflow run.
type Runner interface {
	Execute(ctx context.Context, workflow *models.Workflow, mode models.ExecutionMode) models.ExecutionResult
}

// Acknowledgement is what a caller receives for a processed notification or
// resume call. Summary is set only when workflows ran.
type Acknowledgement struct {
	Message string             `json:"message"`
	Summary *models.RunSummary `json:"summary,omitempty"`

	Results []models.ExecutionResult `json:"-"`
}

// Options tunes a Dispatcher. Zero values fall back to defaults.
type Options struct {
	MaxConcurrent int
	Dedupe        *dedupe.Cache
	Publisher     eventbus.EventPublisher
	Tracer        trace.Tracer
}

// Dispatcher turns drive notifications and resume callbacks into workflow
// runs for the owning user.
type Dispatcher struct {
	store         persistence.Persistence
	runner        Runner
	gate          *credits.Gate
	dedupe        *dedupe.Cache
	publisher     eventbus.EventPublisher
	tracer        trace.Tracer
	logger        *slog.Logger
	maxConcurrent int
}

func NewDispatcher(store persistence.Persistence, runner Runner, logger *slog.Logger, opts Options) *Dispatcher {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}

	if opts.Tracer == nil {
		opts.Tracer = otelhelper.NoopTracer()
	}

	return &Dispatcher{
		store:         store,
		runner:        runner,
		gate:          credits.NewGate(store),
		dedupe:        opts.Dedupe,
		publisher:     opts.Publisher,
		tracer:        opts.Tracer,
		logger:        logger,
		maxConcurrent: opts.MaxConcurrent,
	}
}

// HandleNotification runs every published workflow of the user owning the
// notified resource, then debits one credit if any of them succeeded.
// Errors are returned only for store failures; every other outcome is an
// acknowledgement.
func (d *Dispatcher) HandleNotification(ctx context.Context, notification models.Notification) (Acknowledgement, error) {
	if notification.IsHandshake() {
		return Acknowledgement{Message: AckSync}, nil
	}

	if notification.ResourceID == "" {
		return Acknowledgement{Message: AckNoResourceID}, nil
	}

	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "trigger.process",
		attribute.String(otelhelper.ResourceIDKey, notification.ResourceID),
	)
	defer span.End()

	logger := d.logger.With("resource_id", notification.ResourceID)

	key := dedupe.Key(notification.ChannelID, notification.MessageNumber)
	if d.dedupe != nil && d.dedupe.Seen(key) {
		logger.InfoContext(ctx, "dropping duplicate notification", "message_number", notification.MessageNumber)

		return Acknowledgement{Message: AckDuplicate}, nil
	}

	user, err := d.store.UserByResourceID(ctx, notification.ResourceID)
	if err != nil {
		if persistence.IsUserNotFound(err) {
			logger.InfoContext(ctx, "no user owns resource")

			return Acknowledgement{Message: AckUserNotFound}, nil
		}

		d.forget(key)
		otelhelper.SetError(span, err)

		return Acknowledgement{}, fmt.Errorf("failed to load user: %w", err)
	}

	span.SetAttributes(attribute.String(otelhelper.UserIDKey, user.ID))
	logger = logger.With("user_id", user.ID)

	if !credits.Admit(user.Credits) {
		logger.InfoContext(ctx, "user has no credits left", "credits", user.Credits)

		return Acknowledgement{Message: AckInsufficientCredit}, nil
	}

	workflows, err := d.store.PublishedWorkflows(ctx, user.ID)
	if err != nil {
		d.forget(key)
		otelhelper.SetError(span, err)

		return Acknowledgement{}, fmt.Errorf("failed to load workflows: %w", err)
	}

	if len(workflows) == 0 {
		logger.InfoContext(ctx, "user has no published workflows")

		return Acknowledgement{Message: AckNoPublished}, nil
	}

	results := d.runAll(ctx, workflows)
	summary := models.Summarize(results)

	if summary.Successful > 0 && !user.HasUnlimitedCredits() {
		d.debit(ctx, logger, user)
	}

	logger.InfoContext(ctx, "trigger processed",
		"total_workflows", summary.TotalWorkflows,
		"successful", summary.Successful,
		"failed", summary.Failed,
	)

	d.publish(ctx, user.ID, events.TriggerProcessed{
		BaseEvent:      events.NewBaseEvent(events.TriggerProcessedEvent, "", ""),
		ResourceID:     notification.ResourceID,
		UserID:         user.ID,
		TotalWorkflows: summary.TotalWorkflows,
		Successful:     summary.Successful,
		Failed:         summary.Failed,
	})

	return Acknowledgement{Message: AckFlowCompleted, Summary: &summary, Results: results}, nil
}

// Resume continues a workflow from its stored resume path. The path is
// cleared after the run unless the run suspended again.
func (d *Dispatcher) Resume(ctx context.Context, workflowID string) (Acknowledgement, error) {
	logger := d.logger.With("workflow_id", workflowID)

	workflow, err := d.store.WorkflowByID(ctx, workflowID)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return Acknowledgement{Message: AckWorkflowNotFound}, nil
		}

		return Acknowledgement{}, fmt.Errorf("failed to load workflow: %w", err)
	}

	if len(workflow.ResumePath) == 0 {
		if workflow.HasResumePath() {
			err = d.store.UpdateWorkflowResumePath(ctx, workflow.ID, nil)
			if err != nil {
				return Acknowledgement{}, fmt.Errorf("failed to clear resume path: %w", err)
			}
		}

		return Acknowledgement{Message: AckNothingToResume}, nil
	}

	if !workflow.IsSuffixOfFlowPath(workflow.ResumePath) {
		logger.WarnContext(ctx, "resume path no longer matches flow path", "resume_path", workflow.ResumePath)
	}

	result := d.run(ctx, workflow, models.ModeResume)

	if !result.Suspended {
		err = d.store.UpdateWorkflowResumePath(ctx, workflow.ID, nil)
		if err != nil {
			logger.ErrorContext(ctx, "failed to clear resume path", "error", err)
		}
	}

	results := []models.ExecutionResult{result}
	summary := models.Summarize(results)

	return Acknowledgement{Message: AckFlowResumed, Summary: &summary, Results: results}, nil
}

// runAll executes workflows with bounded concurrency. Results keep the load
// order regardless of completion order.
func (d *Dispatcher) runAll(ctx context.Context, workflows []*models.Workflow) []models.ExecutionResult {
	results := make([]models.ExecutionResult, len(workflows))

	var g errgroup.Group
	g.SetLimit(d.maxConcurrent)

	for i, workflow := range workflows {
		g.Go(func() error {
			results[i] = d.run(ctx, workflow, models.ModeTrigger)

			return nil
		})
	}

	_ = g.Wait()

	return results
}

// run isolates one workflow so a panic fails only that workflow.
func (d *Dispatcher) run(ctx context.Context, workflow *models.Workflow, mode models.ExecutionMode) (result models.ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "workflow execution panicked", "workflow_id", workflow.ID, "panic", r)
			result = models.FailedExecution(workflow, len(workflow.StepsFor(mode)), fmt.Sprintf("workflow execution panicked: %v", r))
		}
	}()

	return d.runner.Execute(ctx, workflow, mode)
}

// debit charges one credit. Failures are logged and leave the
// acknowledgement unchanged.
func (d *Dispatcher) debit(ctx context.Context, logger *slog.Logger, user *models.User) {
	balance, err := d.gate.Debit(ctx, user)
	if err != nil {
		logger.ErrorContext(ctx, "failed to debit credits", "error", err)

		return
	}

	logger.InfoContext(ctx, "credits debited", "balance", balance)

	d.publish(ctx, user.ID, events.CreditsDebited{
		BaseEvent: events.NewBaseEvent(events.CreditsDebitedEvent, "", ""),
		UserID:    user.ID,
		Balance:   balance,
	})
}

func (d *Dispatcher) forget(key string) {
	if d.dedupe != nil {
		d.dedupe.Forget(key)
	}
}

func (d *Dispatcher) publish(ctx context.Context, key string, event eventbus.Event) {
	if d.publisher == nil {
		return
	}

	err := d.publisher.Publish(ctx, key, event)
	if err != nil {
		d.logger.WarnContext(ctx, "failed to publish event", "event_type", string(event.GetType()), "error", err)
	}
}
