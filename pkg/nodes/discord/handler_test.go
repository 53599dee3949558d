package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/driveflow/pkg/mocks"
	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const webhookURL = "https://discord.com/api/webhooks/1/abc"

func stepFor(config models.ChatWebhookConfig) protocol.StepContext {
	return protocol.StepContext{
		Workflow: &models.Workflow{ID: "wf-1", ChatWebhook: config},
		Step:     models.Step{Index: 1, Name: "Discord", Kind: models.StepChatWebhook},
	}
}

func TestHandler_Execute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		config    models.ChatWebhookConfig
		setup     func(m *mocks.MockWebhookSender)
		completed bool
		errText   string
	}{
		{
			name:   "delivered",
			config: models.ChatWebhookConfig{URL: webhookURL, Template: "file changed"},
			setup: func(m *mocks.MockWebhookSender) {
				m.On("Send", mock.Anything, webhookURL, "file changed").Return(true, nil)
			},
			completed: true,
		},
		{
			name:    "empty template",
			config:  models.ChatWebhookConfig{URL: webhookURL, Template: "   "},
			errText: "message template is empty",
		},
		{
			name:    "missing url",
			config:  models.ChatWebhookConfig{Template: "hi"},
			errText: "url is required",
		},
		{
			name:   "rejected",
			config: models.ChatWebhookConfig{URL: webhookURL, Template: "hi"},
			setup: func(m *mocks.MockWebhookSender) {
				m.On("Send", mock.Anything, webhookURL, "hi").Return(false, nil)
			},
			errText: "webhook rejected the message",
		},
		{
			name:   "transport error",
			config: models.ChatWebhookConfig{URL: webhookURL, Template: "hi"},
			setup: func(m *mocks.MockWebhookSender) {
				m.On("Send", mock.Anything, webhookURL, "hi").Return(false, errors.New("timeout"))
			},
			errText: "failed to send: timeout",
		},
		{
			name:   "sender panics",
			config: models.ChatWebhookConfig{URL: webhookURL, Template: "hi"},
			setup: func(m *mocks.MockWebhookSender) {
				m.On("Send", mock.Anything, webhookURL, "hi").Panic("nil map")
			},
			errText: "handler panicked: nil map",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := &mocks.MockWebhookSender{}
			if tt.setup != nil {
				tt.setup(sender)
			}

			outcome := NewHandler(sender).Execute(context.Background(), stepFor(tt.config))

			assert.Equal(t, tt.completed, outcome.Completed)
			assert.Equal(t, tt.errText, outcome.Error)

			if tt.setup == nil {
				sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestHandler_Kind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, models.StepChatWebhook, NewHandler(nil).Kind())
}
