// Package redis provides a Redis-backed persistence implementation for users and workflows.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/persistence"
	redis "github.com/redis/go-redis/v9"
)

const defaultNamespace = "driveflow"

// Persistence stores every record as a JSON string. A per-owner sorted set,
// scored by creation time, keeps workflow load order stable.
type Persistence struct {
	client    redis.UniversalClient
	logger    *slog.Logger
	namespace string
}

var _ persistence.Persistence = (*Persistence)(nil)

// NewPersistence connects to the redis:// URL and verifies the connection.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr, "db", options.DB)

	return NewWithClient(client, logger, defaultNamespace), nil
}

// NewWithClient wraps an existing client. Keys are prefixed with namespace.
func NewWithClient(client redis.UniversalClient, logger *slog.Logger, namespace string) *Persistence {
	return &Persistence{client: client, logger: logger, namespace: namespace}
}

func (p *Persistence) key(args ...string) string {
	return fmt.Sprintf("%s:%s", p.namespace, strings.Join(args, ":"))
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) UserByResourceID(ctx context.Context, resourceID string) (*models.User, error) {
	userID, err := p.client.Get(ctx, p.key("resource", resourceID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewUserError("UserByResourceID", resourceID, persistence.ErrUserNotFound)
		}

		return nil, fmt.Errorf("failed to resolve resource %s: %w", resourceID, err)
	}

	return p.userByID(ctx, p.client, userID)
}

func (p *Persistence) userByID(ctx context.Context, cmd redis.Cmdable, userID string) (*models.User, error) {
	body, err := cmd.Get(ctx, p.key("user", userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewUserError("UserByID", userID, persistence.ErrUserNotFound)
		}

		return nil, fmt.Errorf("failed to fetch user %s: %w", userID, err)
	}

	var user models.User

	err = json.Unmarshal(body, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal user %s: %w", userID, err)
	}

	return &user, nil
}

// UpdateUserCredits rewrites the stored user under WATCH so a concurrent
// writer aborts the transaction instead of being overwritten.
func (p *Persistence) UpdateUserCredits(ctx context.Context, userID string, credits string) error {
	userKey := p.key("user", userID)

	return p.client.Watch(ctx, func(tx *redis.Tx) error {
		user, err := p.userByID(ctx, tx, userID)
		if err != nil {
			return err
		}

		user.Credits = credits

		body, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("failed to marshal user %s: %w", userID, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, userKey, body, 0)

			return nil
		})

		return err
	}, userKey)
}

func (p *Persistence) SaveUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return persistence.NewUserError("SaveUser", "", fmt.Errorf("%w: missing id", persistence.ErrInvalidDocument))
	}

	body, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user %s: %w", user.ID, err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.key("user", user.ID), body, 0)

		if user.ResourceID != "" {
			pipe.Set(ctx, p.key("resource", user.ResourceID), user.ID, 0)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.ID, err)
	}

	return nil
}

// PublishedWorkflows walks the owner index in ascending creation order.
func (p *Persistence) PublishedWorkflows(ctx context.Context, userID string) ([]*models.Workflow, error) {
	ids, err := p.client.ZRange(ctx, p.key("owner", userID, "workflows"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows of %s: %w", userID, err)
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := p.WorkflowByID(ctx, id)
		if err != nil {
			if persistence.IsWorkflowNotFound(err) {
				p.logger.WarnContext(ctx, "owner index references missing workflow", "workflow_id", id)

				continue
			}

			return nil, err
		}

		if workflow.Published && workflow.OwnerID == userID {
			workflows = append(workflows, workflow)
		}
	}

	return workflows, nil
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	body, err := p.client.Get(ctx, p.key("workflow", id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	var workflow models.Workflow

	err = json.Unmarshal(body, &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", id, err)
	}

	return &workflow, nil
}

func (p *Persistence) UpdateWorkflowResumePath(ctx context.Context, workflowID string, steps []string) error {
	workflowKey := p.key("workflow", workflowID)

	return p.client.Watch(ctx, func(tx *redis.Tx) error {
		workflow, err := p.WorkflowByID(ctx, workflowID)
		if err != nil {
			return err
		}

		workflow.ResumePath = steps
		workflow.UpdatedAt = time.Now().UTC()

		body, err := json.Marshal(workflow)
		if err != nil {
			return fmt.Errorf("failed to marshal workflow %s: %w", workflowID, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, workflowKey, body, 0)

			return nil
		})

		return err
	}, workflowKey)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	if workflow.ID == "" {
		return persistence.NewWorkflowError("SaveWorkflow", "", fmt.Errorf("%w: missing id", persistence.ErrInvalidDocument))
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	body, err := json.Marshal(workflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.key("workflow", workflow.ID), body, 0)
		pipe.ZAdd(ctx, p.key("owner", workflow.OwnerID, "workflows"), redis.Z{
			Score:  float64(workflow.CreatedAt.UnixMilli()),
			Member: workflow.ID,
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	return nil
}
