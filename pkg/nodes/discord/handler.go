// Package discord implements the ChatWebhook step: one message to a Discord
// incoming webhook.
package discord

import (
	"context"
	"strings"

	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/nodes"
	"github.com/dukex/driveflow/pkg/protocol"
)

// Sender delivers webhook messages.
type Sender interface {
	Send(ctx context.Context, webhookURL string, text string) (bool, error)
}

type Handler struct {
	sender Sender
}

func NewHandler(sender Sender) *Handler {
	return &Handler{sender: sender}
}

var _ protocol.StepHandler = (*Handler)(nil)

func (h *Handler) Kind() models.StepKind {
	return models.StepChatWebhook
}

func (h *Handler) Description() string {
	return "Posts the workflow message template to a Discord webhook"
}

func (h *Handler) Execute(ctx context.Context, step protocol.StepContext) (outcome models.StepOutcome) {
	defer nodes.Recover(&outcome)

	config := step.Workflow.ChatWebhook

	if strings.TrimSpace(config.Template) == "" {
		return models.StepFailed("message template is empty")
	}

	err := nodes.ValidateConfig(config)
	if err != nil {
		return models.StepFailed("%v", err)
	}

	accepted, err := h.sender.Send(ctx, config.URL, config.Template)
	if err != nil {
		return models.StepFailed("failed to send: %v", err)
	}

	if !accepted {
		return models.StepFailed("webhook rejected the message")
	}

	return models.StepSucceeded()
}
