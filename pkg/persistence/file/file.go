// Package file provides file-based persistence implementation for users and workflows.
package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
// Every record is one JSON document under <root>/users or <root>/workflows.
type Persistence struct {
	root         string
	mu           sync.RWMutex
	userRepo     *UserRepository
	workflowRepo *WorkflowRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:         cleanRoot,
		userRepo:     NewUserRepository(cleanRoot),
		workflowRepo: NewWorkflowRepository(cleanRoot),
	}
}

var _ persistence.Persistence = (*Persistence)(nil)

// isRecordID reports whether id names a single file inside a record
// directory. Anything that could resolve outside it is rejected.
func isRecordID(id string) bool {
	return id != "" && filepath.IsLocal(id) && !strings.ContainsAny(id, `/\`)
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) UserByResourceID(ctx context.Context, resourceID string) (*models.User, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	return fp.userRepo.GetByResourceID(ctx, resourceID)
}

func (fp *Persistence) PublishedWorkflows(ctx context.Context, userID string) ([]*models.Workflow, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	return fp.workflowRepo.GetPublishedByOwner(ctx, userID)
}

func (fp *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	return fp.workflowRepo.GetByID(ctx, id)
}

func (fp *Persistence) UpdateUserCredits(ctx context.Context, userID string, credits string) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	user, err := fp.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	user.Credits = credits

	return fp.userRepo.Save(ctx, user)
}

func (fp *Persistence) UpdateWorkflowResumePath(ctx context.Context, workflowID string, steps []string) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	workflow, err := fp.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		return err
	}

	workflow.ResumePath = steps

	return fp.workflowRepo.Save(ctx, workflow)
}

func (fp *Persistence) SaveUser(ctx context.Context, user *models.User) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	return fp.userRepo.Save(ctx, user)
}

func (fp *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	return fp.workflowRepo.Save(ctx, workflow)
}
