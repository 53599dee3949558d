package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockWebhookSender is a mock of the Discord webhook sender.
type MockWebhookSender struct {
	mock.Mock
}

func (m *MockWebhookSender) Send(ctx context.Context, webhookURL string, text string) (bool, error) {
	args := m.Called(ctx, webhookURL, text)

	return args.Bool(0), args.Error(1)
}

// MockMessagePoster is a mock of the Slack message poster.
type MockMessagePoster struct {
	mock.Mock
}

func (m *MockMessagePoster) PostMessage(ctx context.Context, token string, channel string, text string) error {
	args := m.Called(ctx, token, channel, text)

	return args.Error(0)
}

// MockPageCreator is a mock of the Notion page creator.
type MockPageCreator struct {
	mock.Mock
}

func (m *MockPageCreator) CreatePage(ctx context.Context, token string, databaseID string, title string) (string, error) {
	args := m.Called(ctx, token, databaseID, title)

	return args.String(0), args.Error(1)
}

// MockSuspender is a mock of the Delay step suspender.
type MockSuspender struct {
	mock.Mock
}

func (m *MockSuspender) Suspend(ctx context.Context, workflowID string, remaining []string) error {
	args := m.Called(ctx, workflowID, remaining)

	return args.Error(0)
}
