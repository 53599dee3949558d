package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/persistence"
	"github.com/google/uuid"
)

const workflowColumns = `
			id
		  , owner_id
		  , name
		  , published
		  , flow_path
		  , resume_path
		  , chat_webhook
		  , chat_notify
		  , document_create
		  , created_at
		  , updated_at`

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

// GetPublishedByOwner returns the published workflows of one user, oldest first.
func (r *WorkflowRepository) GetPublishedByOwner(ctx context.Context, ownerID string) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows
		WHERE owner_id = $1 AND published = true
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func(ctx context.Context, r *WorkflowRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := r.scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows
		WHERE id = $1
	`

	workflow, err := r.scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

// UpdateResumePath stores the continuation as JSON, or NULL when steps is nil.
func (r *WorkflowRepository) UpdateResumePath(ctx context.Context, workflowID string, steps []string) error {
	resumeJSON, err := nullableJSON(steps)
	if err != nil {
		return fmt.Errorf("failed to marshal resume path: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE workflows SET resume_path = $2, updated_at = $3 WHERE id = $1`,
		workflowID, resumeJSON, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update resume path: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewWorkflowError("UpdateResumePath", workflowID, persistence.ErrWorkflowNotFound)
	}

	return nil
}

// Save saves a workflow to the database.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	flowPath := workflow.FlowPath
	if flowPath == nil {
		flowPath = []string{}
	}

	flowJSON, err := json.Marshal(flowPath)
	if err != nil {
		return fmt.Errorf("failed to marshal flow path: %w", err)
	}

	resumeJSON, err := nullableJSON(workflow.ResumePath)
	if err != nil {
		return fmt.Errorf("failed to marshal resume path: %w", err)
	}

	webhookJSON, err := json.Marshal(workflow.ChatWebhook)
	if err != nil {
		return fmt.Errorf("failed to marshal chat webhook config: %w", err)
	}

	notifyJSON, err := json.Marshal(workflow.ChatNotify)
	if err != nil {
		return fmt.Errorf("failed to marshal chat notify config: %w", err)
	}

	documentJSON, err := json.Marshal(workflow.DocumentCreate)
	if err != nil {
		return fmt.Errorf("failed to marshal document config: %w", err)
	}

	query := `
		INSERT INTO workflows (id, owner_id, name, published, flow_path, resume_path,
chat_webhook, chat_notify, document_create, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			name = EXCLUDED.name,
			published = EXCLUDED.published,
			flow_path = EXCLUDED.flow_path,
			resume_path = EXCLUDED.resume_path,
			chat_webhook = EXCLUDED.chat_webhook,
			chat_notify = EXCLUDED.chat_notify,
			document_create = EXCLUDED.document_create,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.OwnerID,
		workflow.Name,
		workflow.Published,
		flowJSON,
		resumeJSON,
		webhookJSON,
		notifyJSON,
		documentJSON,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *WorkflowRepository) scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow                              models.Workflow
		flowJSON, resumeJSON                  []byte
		webhookJSON, notifyJSON, documentJSON []byte
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.OwnerID,
		&workflow.Name,
		&workflow.Published,
		&flowJSON,
		&resumeJSON,
		&webhookJSON,
		&notifyJSON,
		&documentJSON,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(flowJSON, &workflow.FlowPath)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow path: %w", err)
	}

	if resumeJSON != nil {
		workflow.ResumePath = []string{}

		err = json.Unmarshal(resumeJSON, &workflow.ResumePath)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal resume path: %w", err)
		}
	}

	err = json.Unmarshal(webhookJSON, &workflow.ChatWebhook)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat webhook config: %w", err)
	}

	err = json.Unmarshal(notifyJSON, &workflow.ChatNotify)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat notify config: %w", err)
	}

	err = json.Unmarshal(documentJSON, &workflow.DocumentCreate)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal document config: %w", err)
	}

	return &workflow, nil
}

func nullableJSON(steps []string) (any, error) {
	if steps == nil {
		return nil, nil
	}

	return json.Marshal(steps)
}
