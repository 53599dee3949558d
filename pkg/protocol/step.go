// Package protocol defines the contract between the workflow interpreter and
// the step handlers it dispatches to.
package protocol

import (
	"context"

	"github.com/dukex/driveflow/pkg/models"
)

// StepContext is everything a handler may read while running one step.
type StepContext struct {
	RunID    string
	Workflow *models.Workflow
	Step     models.Step

	// Remaining holds the step names after this one. It is never nil so a
	// final Delay persists an empty continuation rather than none.
	Remaining []string
}

// StepHandler executes one step kind. Implementations report every failure
// through the returned outcome and never panic past Execute.
type StepHandler interface {
	// Kind returns the step kind this handler serves
	Kind() models.StepKind

	// Description returns a description of what this handler does
	Description() string

	Execute(ctx context.Context, step StepContext) models.StepOutcome
}
