// Package workflow interprets flow paths and dispatches drive notifications
// to the published workflows of the matching user.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/driveflow/pkg/eventbus"
	"github.com/dukex/driveflow/pkg/events"
	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/otelhelper"
	"github.com/dukex/driveflow/pkg/protocol"
	"github.com/dukex/driveflow/pkg/registry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoFlowPath is the single error recorded for a workflow with no steps.
const ErrNoFlowPath = "no flow path defined"

// Executor walks one workflow's steps in order, one handler call per step.
type Executor struct {
	registry  *registry.Registry
	publisher eventbus.EventPublisher
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewExecutor creates an executor. publisher may be nil to disable events.
func NewExecutor(registry *registry.Registry, publisher eventbus.EventPublisher, tracer trace.Tracer, logger *slog.Logger) *Executor {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Executor{
		registry:  registry,
		publisher: publisher,
		tracer:    tracer,
		logger:    logger,
	}
}

// Execute runs the flow path (ModeTrigger) or the stored resume path
// (ModeResume). Step failures are collected and never stop the walk, except
// that a Delay step always ends it.
func (e *Executor) Execute(ctx context.Context, workflow *models.Workflow, mode models.ExecutionMode) models.ExecutionResult {
	started := time.Now()
	runID := uuid.NewString()

	path := workflow.StepsFor(mode)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
		attribute.String(otelhelper.ExecutionModeKey, string(mode)),
		attribute.String(otelhelper.RunIDKey, runID),
	)
	defer span.End()

	logger := e.logger.With("workflow_id", workflow.ID, "run_id", runID, "mode", string(mode))

	result := models.NewExecutionResult(workflow, len(path))
	result.Resumed = mode == models.ModeResume

	if len(path) == 0 {
		result.AddError(ErrNoFlowPath)
		logger.WarnContext(ctx, "workflow has no steps")

		return e.finish(ctx, span, logger, runID, mode, started, result)
	}

	logger.InfoContext(ctx, "starting workflow run", "total_steps", len(path))

	for _, step := range models.ParseSteps(path) {
		stepContext := protocol.StepContext{
			RunID:     runID,
			Workflow:  workflow,
			Step:      step,
			Remaining: append([]string{}, path[step.Index+1:]...),
		}

		outcome := e.runStep(ctx, logger, stepContext)

		switch {
		case step.Kind == models.StepUnknown:
			result.AddError("unknown step type: " + step.Name)
		case outcome.Completed:
			result.StepsCompleted++
		default:
			result.AddError(fmt.Sprintf("%s: %s", step.Name, outcome.Error))
		}

		if step.Kind == models.StepDelay {
			result.Suspended = outcome.Completed

			break
		}
	}

	return e.finish(ctx, span, logger, runID, mode, started, result)
}

func (e *Executor) runStep(ctx context.Context, logger *slog.Logger, step protocol.StepContext) models.StepOutcome {
	started := time.Now()

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "step.execute",
		attribute.Int(otelhelper.StepIndexKey, step.Step.Index),
		attribute.String(otelhelper.StepNameKey, step.Step.Name),
		attribute.String(otelhelper.StepKindKey, step.Step.Kind.String()),
	)
	defer span.End()

	outcome := e.dispatch(ctx, step)
	if !outcome.Completed {
		otelhelper.SetFailure(span, outcome.Error)
	}

	log := logger.With(
		"step_index", step.Step.Index,
		"step_name", step.Step.Name,
		"step_kind", step.Step.Kind.String(),
	)

	switch {
	case outcome.Completed:
		log.InfoContext(ctx, "step completed", "outcome", "completed")
	case outcome.Partial:
		log.WarnContext(ctx, "step partially completed", "outcome", "partial", "error", outcome.Error)
	default:
		log.WarnContext(ctx, "step failed", "outcome", "failed", "error", outcome.Error)
	}

	e.publish(ctx, step.Workflow.ID, events.StepExecuted{
		BaseEvent:  events.NewBaseEvent(events.StepExecutedEvent, step.Workflow.ID, step.RunID),
		StepIndex:  step.Step.Index,
		StepName:   step.Step.Name,
		StepKind:   step.Step.Kind.String(),
		Completed:  outcome.Completed,
		Partial:    outcome.Partial,
		Error:      outcome.Error,
		DurationMs: time.Since(started).Milliseconds(),
	})

	return outcome
}

// dispatch calls the registered handler, containing any panic at the step
// boundary.
func (e *Executor) dispatch(ctx context.Context, step protocol.StepContext) (outcome models.StepOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = models.StepFailed("step panicked: %v", r)
		}
	}()

	if step.Step.Kind == models.StepUnknown {
		return models.StepFailed("unknown step type: %s", step.Step.Name)
	}

	handler, ok := e.registry.Handler(step.Step.Kind)
	if !ok {
		return models.StepFailed("no handler registered for %s", step.Step.Kind)
	}

	return handler.Execute(ctx, step)
}

func (e *Executor) finish(ctx context.Context, span trace.Span, logger *slog.Logger, runID string, mode models.ExecutionMode, started time.Time, result *models.ExecutionResult) models.ExecutionResult {
	final := result.Finish()

	span.SetAttributes(
		attribute.Int("driveflow.steps.completed", final.StepsCompleted),
		attribute.Int("driveflow.steps.total", final.TotalSteps),
		attribute.Bool("driveflow.suspended", final.Suspended),
	)

	if !final.Success {
		otelhelper.SetFailure(span, fmt.Sprintf("%d step errors", len(final.Errors)))
	}

	logger.InfoContext(ctx, "workflow run finished",
		"success", final.Success,
		"steps_completed", final.StepsCompleted,
		"total_steps", final.TotalSteps,
		"suspended", final.Suspended,
		"errors", len(final.Errors),
	)

	e.publish(ctx, final.WorkflowID, events.WorkflowExecuted{
		BaseEvent:      events.NewBaseEvent(events.WorkflowExecutedEvent, final.WorkflowID, runID),
		Mode:           string(mode),
		Success:        final.Success,
		StepsCompleted: final.StepsCompleted,
		TotalSteps:     final.TotalSteps,
		Errors:         final.Errors,
		Suspended:      final.Suspended,
		DurationMs:     time.Since(started).Milliseconds(),
	})

	return final
}

// publish emits an event. Delivery failures are logged and never change a
// run's outcome.
func (e *Executor) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	err := e.publisher.Publish(ctx, key, event)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to publish event", "event_type", string(event.GetType()), "error", err)
	}
}
