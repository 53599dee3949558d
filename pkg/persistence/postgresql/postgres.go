// Package postgresql provides PostgreSQL persistence implementation for users and workflows.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/persistence"
	"github.com/dukex/driveflow/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db           *sql.DB
	logger       *slog.Logger
	userRepo     *UserRepository
	workflowRepo *WorkflowRepository
}

var _ persistence.Persistence = (*Persistence)(nil)

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	postgres := &Persistence{
		db:           database,
		logger:       logger,
		userRepo:     NewUserRepository(database),
		workflowRepo: NewWorkflowRepository(database, logger),
	}

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) UserByResourceID(ctx context.Context, resourceID string) (*models.User, error) {
	return p.userRepo.GetByResourceID(ctx, resourceID)
}

func (p *Persistence) UpdateUserCredits(ctx context.Context, userID string, credits string) error {
	return p.userRepo.UpdateCredits(ctx, userID, credits)
}

func (p *Persistence) SaveUser(ctx context.Context, user *models.User) error {
	return p.userRepo.Save(ctx, user)
}

// PublishedWorkflows returns a user's published workflows, oldest first.
func (p *Persistence) PublishedWorkflows(ctx context.Context, userID string) ([]*models.Workflow, error) {
	return p.workflowRepo.GetPublishedByOwner(ctx, userID)
}

// WorkflowByID returns a workflow by its ID.
func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	return p.workflowRepo.GetByID(ctx, id)
}

func (p *Persistence) UpdateWorkflowResumePath(ctx context.Context, workflowID string, steps []string) error {
	return p.workflowRepo.UpdateResumePath(ctx, workflowID, steps)
}

// SaveWorkflow saves a workflow to the database.
func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return p.workflowRepo.Save(ctx, workflow)
}
