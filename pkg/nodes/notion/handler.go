// Package notion implements the DocumentCreate step: one page in a Notion
// database, titled from the normalized template.
package notion

import (
	"context"

	"github.com/dukex/driveflow/pkg/content"
	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/nodes"
	"github.com/dukex/driveflow/pkg/protocol"
)

// PageCreator creates a page and returns its id.
type PageCreator interface {
	CreatePage(ctx context.Context, token string, databaseID string, title string) (string, error)
}

type Handler struct {
	pages PageCreator
}

func NewHandler(pages PageCreator) *Handler {
	return &Handler{pages: pages}
}

var _ protocol.StepHandler = (*Handler)(nil)

func (h *Handler) Kind() models.StepKind {
	return models.StepDocumentCreate
}

func (h *Handler) Description() string {
	return "Creates a Notion database page from the workflow template"
}

func (h *Handler) Execute(ctx context.Context, step protocol.StepContext) (outcome models.StepOutcome) {
	defer nodes.Recover(&outcome)

	config := step.Workflow.DocumentCreate

	err := nodes.ValidateConfig(config)
	if err != nil {
		return models.StepFailed("%v", err)
	}

	pageID, err := h.pages.CreatePage(ctx, config.AccessToken, config.DatabaseID, content.Normalize(config.Template))
	if err != nil {
		return models.StepFailed("failed to create page: %v", err)
	}

	if pageID == "" {
		return models.StepFailed("no page id returned")
	}

	return models.StepSucceeded()
}
