// Package persistence provides the storage abstraction for users and workflows.
package persistence

import (
	"context"

	"github.com/dukex/driveflow/pkg/models"
)

// Persistence is the system of record the engine reads before and writes
// after each workflow run. It is the only synchronization point between
// concurrent trigger invocations.
type Persistence interface {
	UserByResourceID(ctx context.Context, resourceID string) (*models.User, error)
	PublishedWorkflows(ctx context.Context, userID string) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)

	UpdateUserCredits(ctx context.Context, userID string, credits string) error

	// UpdateWorkflowResumePath overwrites the pending continuation. A nil
	// slice clears it.
	UpdateWorkflowResumePath(ctx context.Context, workflowID string, steps []string) error

	SaveUser(ctx context.Context, user *models.User) error
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
