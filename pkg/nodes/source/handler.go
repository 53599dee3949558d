// Package source implements the Trigger step. The drive notification that
// started the run already happened, so the step only marks the position.
package source

import (
	"context"

	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/protocol"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

var _ protocol.StepHandler = (*Handler)(nil)

func (h *Handler) Kind() models.StepKind {
	return models.StepTrigger
}

func (h *Handler) Description() string {
	return "Marks the drive change that started the run"
}

func (h *Handler) Execute(context.Context, protocol.StepContext) models.StepOutcome {
	return models.StepSucceeded()
}
