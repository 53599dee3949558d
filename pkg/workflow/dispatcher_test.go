package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukex/driveflow/pkg/dedupe"
	"github.com/dukex/driveflow/pkg/mocks"
	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/nodes/slack"
	"github.com/dukex/driveflow/pkg/nodes/wait"
	"github.com/dukex/driveflow/pkg/persistence"
	"github.com/dukex/driveflow/pkg/registry"
	"github.com/dukex/driveflow/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func changeNotification() models.Notification {
	return models.Notification{
		ResourceID:    "res-1",
		ResourceState: "change",
		ChannelID:     "chan-1",
		MessageNumber: "42",
	}
}

func userNotFound() error {
	return persistence.NewUserError("UserByResourceID", "res-1", persistence.ErrUserNotFound)
}

func newTestDispatcher(store *mocks.MockPersistence, runner Runner, opts Options) *Dispatcher {
	return NewDispatcher(store, runner, slog.New(slog.DiscardHandler), opts)
}

func TestDispatcher_HandshakeSkipsStore(t *testing.T) {
	t.Parallel()

	store := &mocks.MockPersistence{}
	dispatcher := newTestDispatcher(store, newTestExecutor(newTestRegistry(newConnectorMocks())), Options{})

	ack, err := dispatcher.HandleNotification(context.Background(), models.Notification{ResourceID: "res-1", ResourceState: models.ResourceStateSync})

	require.NoError(t, err)
	assert.Equal(t, AckSync, ack.Message)
	assert.Nil(t, ack.Summary)
	store.AssertExpectations(t)
}

func TestDispatcher_EarlyAcknowledgements(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		notification models.Notification
		setup        func(store *mocks.MockPersistence)
		expected     string
	}{
		{
			name:         "missing resource id",
			notification: models.Notification{ResourceState: "change"},
			expected:     AckNoResourceID,
		},
		{
			name:         "unknown resource",
			notification: changeNotification(),
			setup: func(store *mocks.MockPersistence) {
				store.On("UserByResourceID", mock.Anything, "res-1").Return(nil, userNotFound())
			},
			expected: AckUserNotFound,
		},
		{
			name:         "no credits left",
			notification: changeNotification(),
			setup: func(store *mocks.MockPersistence) {
				store.On("UserByResourceID", mock.Anything, "res-1").Return(&models.User{ID: "user-1", Credits: "0"}, nil)
			},
			expected: AckInsufficientCredit,
		},
		{
			name:         "unparseable credits",
			notification: changeNotification(),
			setup: func(store *mocks.MockPersistence) {
				store.On("UserByResourceID", mock.Anything, "res-1").Return(&models.User{ID: "user-1", Credits: "lots"}, nil)
			},
			expected: AckInsufficientCredit,
		},
		{
			name:         "nothing published",
			notification: changeNotification(),
			setup: func(store *mocks.MockPersistence) {
				store.On("UserByResourceID", mock.Anything, "res-1").Return(&models.User{ID: "user-1", Credits: "5"}, nil)
				store.On("PublishedWorkflows", mock.Anything, "user-1").Return([]*models.Workflow{}, nil)
			},
			expected: AckNoPublished,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &mocks.MockPersistence{}
			if tt.setup != nil {
				tt.setup(store)
			}

			dispatcher := newTestDispatcher(store, newTestExecutor(newTestRegistry(newConnectorMocks())), Options{})

			ack, err := dispatcher.HandleNotification(context.Background(), tt.notification)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, ack.Message)
			assert.Nil(t, ack.Summary)
			store.AssertExpectations(t)
		})
	}
}

func TestDispatcher_RunsAndDebitsOnce(t *testing.T) {
	t.Parallel()

	c := newConnectorMocks()
	c.sender.On("Send", mock.Anything, testWebhookURL, mock.Anything).Return(true, nil).Twice()

	first := testWorkflow("Trigger", "ChatWebhook")
	second := testWorkflow("Trigger", "ChatWebhook")
	second.ID = "wf-2"

	store := &mocks.MockPersistence{}
	store.On("UserByResourceID", mock.Anything, "res-1").Return(&models.User{ID: "user-1", Credits: "3", ResourceID: "res-1"}, nil)
	store.On("PublishedWorkflows", mock.Anything, "user-1").Return([]*models.Workflow{first, second}, nil)
	store.On("UpdateUserCredits", mock.Anything, "user-1", "2").Return(nil).Once()

	dispatcher := newTestDispatcher(store, newTestExecutor(newTestRegistry(c)), Options{})

	ack, err := dispatcher.HandleNotification(context.Background(), changeNotification())

	require.NoError(t, err)
	assert.Equal(t, AckFlowCompleted, ack.Message)
	require.NotNil(t, ack.Summary)
	assert.Equal(t, models.RunSummary{TotalWorkflows: 2, Successful: 2}, *ack.Summary)
	require.Len(t, ack.Results, 2)
	assert.Equal(t, "wf-1", ack.Results[0].WorkflowID)
	assert.Equal(t, "wf-2", ack.Results[1].WorkflowID)
	assert.True(t, ack.Results[0].Success)
	assert.Equal(t, 2, ack.Results[0].StepsCompleted)
	assert.Equal(t, 2, ack.Results[0].TotalSteps)
	assert.Empty(t, ack.Results[0].Errors)
	store.AssertExpectations(t)
	c.assertExpectations(t)
}

func TestDispatcher_DebitDecisions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		credits   string
		delivered bool
		debitTo   string
		debitErr  error
	}{
		{name: "success debits", credits: "1", delivered: true, debitTo: "0"},
		{name: "all failed keeps balance", credits: "1", delivered: false},
		{name: "unlimited never debits", credits: models.UnlimitedCredits, delivered: true},
		{name: "debit failure is not fatal", credits: "4", delivered: true, debitTo: "3", debitErr: errors.New("write conflict")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newConnectorMocks()
			c.sender.On("Send", mock.Anything, testWebhookURL, mock.Anything).Return(tt.delivered, nil).Once()

			store := &mocks.MockPersistence{}
			store.On("UserByResourceID", mock.Anything, "res-1").Return(&models.User{ID: "user-1", Credits: tt.credits}, nil)
			store.On("PublishedWorkflows", mock.Anything, "user-1").Return([]*models.Workflow{testWorkflow("Discord")}, nil)

			if tt.debitTo != "" {
				store.On("UpdateUserCredits", mock.Anything, "user-1", tt.debitTo).Return(tt.debitErr).Once()
			}

			dispatcher := newTestDispatcher(store, newTestExecutor(newTestRegistry(c)), Options{})

			ack, err := dispatcher.HandleNotification(context.Background(), changeNotification())

			require.NoError(t, err)
			assert.Equal(t, AckFlowCompleted, ack.Message)
			store.AssertExpectations(t)

			if tt.debitTo == "" {
				store.AssertNotCalled(t, "UpdateUserCredits", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestDispatcher_FinalDelayPersistsEmptyResumePath(t *testing.T) {
	t.Parallel()

	store := &mocks.MockPersistence{}
	store.On("UserByResourceID", mock.Anything, "res-1").Return(&models.User{ID: "user-1", Credits: "2"}, nil)
	store.On("PublishedWorkflows", mock.Anything, "user-1").Return([]*models.Workflow{testWorkflow("ChatNotify", "Delay")}, nil)
	store.On("UpdateWorkflowResumePath", mock.Anything, "wf-1", []string{}).Return(nil).Once()
	store.On("UpdateUserCredits", mock.Anything, "user-1", "1").Return(nil).Once()

	wakeups := &mockScheduler{}
	wakeups.On("RegisterCallback", mock.Anything, "https://engine.example.com/workflows/wf-1/resume?flow_id=wf-1", "wf-1").Return(nil).Once()

	poster := &mocks.MockMessagePoster{}
	poster.On("PostMessage", mock.Anything, "xoxb-token", mock.Anything, mock.Anything).Return(nil).Twice()

	logger := slog.New(slog.DiscardHandler)
	reg := registry.NewRegistry(logger)
	reg.Register(slack.NewHandler(poster))
	reg.Register(wait.NewHandler(scheduler.NewSuspender(wakeups, store, "https://engine.example.com", logger)))

	dispatcher := newTestDispatcher(store, newTestExecutor(reg), Options{})

	ack, err := dispatcher.HandleNotification(context.Background(), changeNotification())

	require.NoError(t, err)
	require.Len(t, ack.Results, 1)
	assert.True(t, ack.Results[0].Success)
	assert.True(t, ack.Results[0].Suspended)
	assert.Equal(t, 2, ack.Results[0].StepsCompleted)
	store.AssertExpectations(t)
	wakeups.AssertExpectations(t)
	poster.AssertExpectations(t)
}

func TestDispatcher_DropsDuplicates(t *testing.T) {
	t.Parallel()

	store := &mocks.MockPersistence{}
	store.On("UserByResourceID", mock.Anything, "res-1").Return(nil, userNotFound()).Once()

	dispatcher := newTestDispatcher(store, newTestExecutor(newTestRegistry(newConnectorMocks())), Options{Dedupe: dedupe.New(time.Minute)})

	ack, err := dispatcher.HandleNotification(context.Background(), changeNotification())
	require.NoError(t, err)
	assert.Equal(t, AckUserNotFound, ack.Message)

	ack, err = dispatcher.HandleNotification(context.Background(), changeNotification())
	require.NoError(t, err)
	assert.Equal(t, AckDuplicate, ack.Message)
	store.AssertExpectations(t)
}

func TestDispatcher_StoreFailureAllowsRedelivery(t *testing.T) {
	t.Parallel()

	store := &mocks.MockPersistence{}
	store.On("UserByResourceID", mock.Anything, "res-1").Return(nil, errors.New("connection refused")).Once()
	store.On("UserByResourceID", mock.Anything, "res-1").Return(nil, userNotFound()).Once()

	dispatcher := newTestDispatcher(store, newTestExecutor(newTestRegistry(newConnectorMocks())), Options{Dedupe: dedupe.New(time.Minute)})

	_, err := dispatcher.HandleNotification(context.Background(), changeNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	ack, err := dispatcher.HandleNotification(context.Background(), changeNotification())
	require.NoError(t, err)
	assert.Equal(t, AckUserNotFound, ack.Message)
	store.AssertExpectations(t)
}

func TestDispatcher_WorkflowLoadFailure(t *testing.T) {
	t.Parallel()

	store := &mocks.MockPersistence{}
	store.On("UserByResourceID", mock.Anything, "res-1").Return(&models.User{ID: "user-1", Credits: "2"}, nil)
	store.On("PublishedWorkflows", mock.Anything, "user-1").Return(nil, errors.New("timeout"))

	dispatcher := newTestDispatcher(store, newTestExecutor(newTestRegistry(newConnectorMocks())), Options{})

	_, err := dispatcher.HandleNotification(context.Background(), changeNotification())

	require.Error(t, err)
	store.AssertExpectations(t)
}

// stubRunner answers per workflow id and records the peak concurrency.
type stubRunner struct {
	mu      sync.Mutex
	active  int
	peak    int
	delays  map[string]time.Duration
	panicOn string
}

func (s *stubRunner) Execute(_ context.Context, workflow *models.Workflow, _ models.ExecutionMode) models.ExecutionResult {
	s.mu.Lock()
	s.active++
	s.peak = max(s.peak, s.active)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	time.Sleep(s.delays[workflow.ID])

	if workflow.ID == s.panicOn {
		panic("boom")
	}

	result := models.NewExecutionResult(workflow, len(workflow.FlowPath))
	result.StepsCompleted = len(workflow.FlowPath)

	return result.Finish()
}

func TestDispatcher_BoundedConcurrencyKeepsOrder(t *testing.T) {
	t.Parallel()

	workflows := make([]*models.Workflow, 0, 4)
	for _, id := range []string{"wf-a", "wf-b", "wf-c", "wf-d"} {
		workflows = append(workflows, &models.Workflow{ID: id, Name: id, FlowPath: []string{"Trigger"}})
	}

	store := &mocks.MockPersistence{}
	store.On("UserByResourceID", mock.Anything, "res-1").Return(&models.User{ID: "user-1", Credits: models.UnlimitedCredits}, nil)
	store.On("PublishedWorkflows", mock.Anything, "user-1").Return(workflows, nil)

	runner := &stubRunner{
		delays:  map[string]time.Duration{"wf-a": 30 * time.Millisecond, "wf-b": 10 * time.Millisecond},
		panicOn: "wf-c",
	}

	dispatcher := newTestDispatcher(store, runner, Options{MaxConcurrent: 2})

	ack, err := dispatcher.HandleNotification(context.Background(), changeNotification())

	require.NoError(t, err)
	require.Len(t, ack.Results, 4)

	for i, workflow := range workflows {
		assert.Equal(t, workflow.ID, ack.Results[i].WorkflowID)
	}

	assert.Equal(t, []string{"workflow execution panicked: boom"}, ack.Results[2].Errors)
	assert.Equal(t, models.RunSummary{TotalWorkflows: 4, Successful: 3, Failed: 1}, *ack.Summary)
	assert.LessOrEqual(t, runner.peak, 2)
}

func TestDispatcher_Resume(t *testing.T) {
	t.Parallel()

	t.Run("unknown workflow", func(t *testing.T) {
		t.Parallel()

		store := &mocks.MockPersistence{}
		store.On("WorkflowByID", mock.Anything, "wf-x").
			Return(nil, persistence.NewWorkflowError("WorkflowByID", "wf-x", persistence.ErrWorkflowNotFound))

		ack, err := newTestDispatcher(store, nil, Options{}).Resume(context.Background(), "wf-x")

		require.NoError(t, err)
		assert.Equal(t, AckWorkflowNotFound, ack.Message)
	})

	t.Run("no resume path", func(t *testing.T) {
		t.Parallel()

		store := &mocks.MockPersistence{}
		store.On("WorkflowByID", mock.Anything, "wf-1").Return(testWorkflow("Trigger", "Wait"), nil)

		ack, err := newTestDispatcher(store, nil, Options{}).Resume(context.Background(), "wf-1")

		require.NoError(t, err)
		assert.Equal(t, AckNothingToResume, ack.Message)
		store.AssertNotCalled(t, "UpdateWorkflowResumePath", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty resume path is cleared", func(t *testing.T) {
		t.Parallel()

		workflow := testWorkflow("Trigger", "Wait")
		workflow.ResumePath = []string{}

		store := &mocks.MockPersistence{}
		store.On("WorkflowByID", mock.Anything, "wf-1").Return(workflow, nil)
		store.On("UpdateWorkflowResumePath", mock.Anything, "wf-1", []string(nil)).Return(nil).Once()

		ack, err := newTestDispatcher(store, nil, Options{}).Resume(context.Background(), "wf-1")

		require.NoError(t, err)
		assert.Equal(t, AckNothingToResume, ack.Message)
		store.AssertExpectations(t)
	})

	t.Run("runs remaining steps and clears", func(t *testing.T) {
		t.Parallel()

		c := newConnectorMocks()
		c.sender.On("Send", mock.Anything, testWebhookURL, mock.Anything).Return(true, nil).Once()

		workflow := testWorkflow("Trigger", "Wait", "Discord")
		workflow.ResumePath = []string{"Discord"}

		store := &mocks.MockPersistence{}
		store.On("WorkflowByID", mock.Anything, "wf-1").Return(workflow, nil)
		store.On("UpdateWorkflowResumePath", mock.Anything, "wf-1", []string(nil)).Return(nil).Once()

		ack, err := newTestDispatcher(store, newTestExecutor(newTestRegistry(c)), Options{}).Resume(context.Background(), "wf-1")

		require.NoError(t, err)
		assert.Equal(t, AckFlowResumed, ack.Message)
		assert.Equal(t, models.RunSummary{TotalWorkflows: 1, Successful: 1}, *ack.Summary)
		require.Len(t, ack.Results, 1)
		assert.True(t, ack.Results[0].Resumed)
		store.AssertExpectations(t)
		c.assertExpectations(t)
	})

	t.Run("suspending again keeps the new path", func(t *testing.T) {
		t.Parallel()

		c := newConnectorMocks()
		c.suspender.On("Suspend", mock.Anything, "wf-1", []string{"Discord"}).Return(nil).Once()

		workflow := testWorkflow("Trigger", "Wait", "Wait", "Discord")
		workflow.ResumePath = []string{"Wait", "Discord"}

		store := &mocks.MockPersistence{}
		store.On("WorkflowByID", mock.Anything, "wf-1").Return(workflow, nil)

		ack, err := newTestDispatcher(store, newTestExecutor(newTestRegistry(c)), Options{}).Resume(context.Background(), "wf-1")

		require.NoError(t, err)
		assert.Equal(t, AckFlowResumed, ack.Message)
		assert.True(t, ack.Results[0].Suspended)
		store.AssertNotCalled(t, "UpdateWorkflowResumePath", mock.Anything, mock.Anything, mock.Anything)
		c.assertExpectations(t)
	})

	t.Run("panic reports the resume path length", func(t *testing.T) {
		t.Parallel()

		workflow := testWorkflow("Trigger", "Wait", "Discord", "Slack")
		workflow.ResumePath = []string{"Slack"}

		store := &mocks.MockPersistence{}
		store.On("WorkflowByID", mock.Anything, "wf-1").Return(workflow, nil)
		store.On("UpdateWorkflowResumePath", mock.Anything, "wf-1", []string(nil)).Return(nil).Once()

		ack, err := newTestDispatcher(store, &stubRunner{panicOn: "wf-1"}, Options{}).Resume(context.Background(), "wf-1")

		require.NoError(t, err)
		require.Len(t, ack.Results, 1)
		assert.False(t, ack.Results[0].Success)
		assert.Equal(t, 1, ack.Results[0].TotalSteps)
		assert.Equal(t, []string{"workflow execution panicked: boom"}, ack.Results[0].Errors)
		store.AssertExpectations(t)
	})
}

type mockScheduler struct {
	mock.Mock
}

func (m *mockScheduler) RegisterCallback(ctx context.Context, targetURL string, workflowID string) error {
	args := m.Called(ctx, targetURL, workflowID)

	return args.Error(0)
}

var (
	_ Runner              = (*Executor)(nil)
	_ scheduler.Scheduler = (*mockScheduler)(nil)
)
