package slack

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

func stepFor(config models.ChatNotifyConfig) protocol.StepContext {
	return protocol.StepContext{
		Workflow: &models.Workflow{ID: "wf-1", ChatNotify: config},
		Step:     models.Step{Index: 1, Name: "Slack", Kind: models.StepChatNotify},
	}
}

func TestHandler_Execute_AllDelivered(t *testing.T) {
	t.Parallel()

	poster := &mocks.MockMessagePoster{}
	poster.On("PostMessage", mock.Anything, "xoxb", "C1", "hello").Return(nil).Once()
	poster.On("PostMessage", mock.Anything, "xoxb", "C2", "hello").Return(nil).Once()

	outcome := NewHandler(poster).Execute(context.Background(), stepFor(models.ChatNotifyConfig{
		AccessToken: "xoxb",
		Channels:    []string{"C1", "", "  ", "C2"},
		Template:    "hello",
	}))

	assert.Equal(t, models.StepSucceeded(), outcome)
	poster.AssertExpectations(t)
	poster.AssertNumberOfCalls(t, "PostMessage", 2)
}

func TestHandler_Execute_PartialNamesOnlyFailedChannel(t *testing.T) {
	t.Parallel()

	poster := &mocks.MockMessagePoster{}
	poster.On("PostMessage", mock.Anything, "xoxb", "A", "hello").Return(nil)
	poster.On("PostMessage", mock.Anything, "xoxb", "B", "hello").Return(errors.New("channel_not_found"))

	outcome := NewHandler(poster).Execute(context.Background(), stepFor(models.ChatNotifyConfig{
		AccessToken: "xoxb",
		Channels:    []string{"A", "B"},
		Template:    "hello",
	}))

	assert.False(t, outcome.Completed)
	assert.True(t, outcome.Partial)
	assert.Equal(t, "partial success: 1/2 channels; B: channel_not_found", outcome.Error)
	assert.NotContains(t, outcome.Error, "A:")
}

func TestHandler_Execute_NoneDelivered(t *testing.T) {
	t.Parallel()

	poster := &mocks.MockMessagePoster{}
	poster.On("PostMessage", mock.Anything, "xoxb", "A", "hello").Return(errors.New("not_in_channel"))
	poster.On("PostMessage", mock.Anything, "xoxb", "B", "hello").Panic("boom")

	outcome := NewHandler(poster).Execute(context.Background(), stepFor(models.ChatNotifyConfig{
		AccessToken: "xoxb",
		Channels:    []string{"A", "B"},
		Template:    "hello",
	}))

	assert.False(t, outcome.Completed)
	assert.False(t, outcome.Partial)
	assert.Equal(t, "failed to send: A: not_in_channel, B: panicked: boom", outcome.Error)
}

func TestHandler_Execute_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  models.ChatNotifyConfig
		errText string
	}{
		{
			name:    "empty content",
			config:  models.ChatNotifyConfig{AccessToken: "xoxb", Channels: []string{"C1"}, Template: " "},
			errText: "content is empty",
		},
		{
			name:    "missing token",
			config:  models.ChatNotifyConfig{Channels: []string{"C1"}, Template: "hi"},
			errText: "access_token is required",
		},
		{
			name:    "only blank channels",
			config:  models.ChatNotifyConfig{AccessToken: "xoxb", Channels: []string{"", " "}, Template: "hi"},
			errText: "channels needs at least 1 entries",
		},
		{
			name:    "no channels",
			config:  models.ChatNotifyConfig{AccessToken: "xoxb", Template: "hi"},
			errText: "channels needs at least 1 entries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			poster := &mocks.MockMessagePoster{}
			outcome := NewHandler(poster).Execute(context.Background(), stepFor(tt.config))

			assert.False(t, outcome.Completed)
			assert.Equal(t, tt.errText, outcome.Error)
			poster.AssertNotCalled(t, "PostMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestValidChannels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"C1", "C2"}, validChannels([]string{"", "C1", "\t", "C2"}))
	assert.Empty(t, validChannels(nil))
}
