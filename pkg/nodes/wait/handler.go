// Package wait implements the Delay step. It hands the remaining steps to
// the suspension scheduler; the interpreter stops after it either way.
package wait

import (
	"context"

	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/nodes"
	"github.com/dukex/driveflow/pkg/protocol"
)

// Suspender registers a wake-up and persists the continuation.
type Suspender interface {
	Suspend(ctx context.Context, workflowID string, remaining []string) error
}

type Handler struct {
	suspender Suspender
}

func NewHandler(suspender Suspender) *Handler {
	return &Handler{suspender: suspender}
}

var _ protocol.StepHandler = (*Handler)(nil)

func (h *Handler) Kind() models.StepKind {
	return models.StepDelay
}

func (h *Handler) Description() string {
	return "Suspends the run until the external scheduler calls back"
}

func (h *Handler) Execute(ctx context.Context, step protocol.StepContext) (outcome models.StepOutcome) {
	defer nodes.Recover(&outcome)

	if step.Workflow == nil || step.Workflow.ID == "" {
		return models.StepFailed("workflow id is required to schedule a resume")
	}

	remaining := step.Remaining
	if remaining == nil {
		remaining = []string{}
	}

	err := h.suspender.Suspend(ctx, step.Workflow.ID, remaining)
	if err != nil {
		return models.StepFailed("failed to schedule resume: %v", err)
	}

	return models.StepSucceeded()
}
