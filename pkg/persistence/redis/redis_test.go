package redis_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/persistence"
	driveredis "github.com/dukex/driveflow/pkg/persistence/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) (*driveredis.Persistence, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	t.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.Endpoint(ctx, "redis")
	require.NoError(t, err)

	p, err := driveredis.NewPersistence(ctx, slog.New(slog.DiscardHandler), endpoint)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = p.Close(ctx)
	})

	return p, ctx
}

func TestPersistence_Users(t *testing.T) {
	p, ctx := setupRedis(t)

	require.NoError(t, p.SaveUser(ctx, &models.User{ID: "u1", Credits: "2", ResourceID: "res-1"}))

	user, err := p.UserByResourceID(ctx, "res-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	require.NoError(t, p.UpdateUserCredits(ctx, "u1", "1"))

	user, err = p.UserByResourceID(ctx, "res-1")
	require.NoError(t, err)
	assert.Equal(t, "1", user.Credits)

	_, err = p.UserByResourceID(ctx, "res-2")
	assert.True(t, persistence.IsUserNotFound(err))
	assert.True(t, persistence.IsUserNotFound(p.UpdateUserCredits(ctx, "nobody", "1")))
}

func TestPersistence_Workflows(t *testing.T) {
	p, ctx := setupRedis(t)

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, p.SaveWorkflow(ctx, &models.Workflow{
		ID: "wf-late", OwnerID: "u1", Name: "late", Published: true,
		FlowPath: []string{"Trigger"}, CreatedAt: base.Add(time.Hour),
	}))
	require.NoError(t, p.SaveWorkflow(ctx, &models.Workflow{
		ID: "wf-early", OwnerID: "u1", Name: "early", Published: true,
		FlowPath: []string{"Trigger", "Wait", "Slack"}, CreatedAt: base,
	}))
	require.NoError(t, p.SaveWorkflow(ctx, &models.Workflow{
		ID: "wf-draft", OwnerID: "u1", Name: "draft", FlowPath: []string{"Trigger"}, CreatedAt: base,
	}))

	published, err := p.PublishedWorkflows(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, published, 2)
	assert.Equal(t, "wf-early", published[0].ID)
	assert.Equal(t, "wf-late", published[1].ID)

	require.NoError(t, p.UpdateWorkflowResumePath(ctx, "wf-early", []string{"Slack"}))

	workflow, err := p.WorkflowByID(ctx, "wf-early")
	require.NoError(t, err)
	assert.Equal(t, []string{"Slack"}, workflow.ResumePath)

	require.NoError(t, p.UpdateWorkflowResumePath(ctx, "wf-early", nil))

	workflow, err = p.WorkflowByID(ctx, "wf-early")
	require.NoError(t, err)
	assert.Nil(t, workflow.ResumePath)

	_, err = p.WorkflowByID(ctx, "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}
