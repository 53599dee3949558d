package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/persistence"
)

// UserRepository handles user-related file operations.
type UserRepository struct {
	root string
}

// NewUserRepository creates a new user repository.
func NewUserRepository(root string) *UserRepository {
	return &UserRepository{root: root}
}

func (ur *UserRepository) GetByID(_ context.Context, userID string) (*models.User, error) {
	if !isRecordID(userID) {
		return nil, persistence.NewUserError("UserByID", userID, persistence.ErrUserNotFound)
	}

	filePath := filepath.Clean(path.Join(ur.root, "users", userID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewUserError("UserByID", userID, persistence.ErrUserNotFound)
		}

		return nil, fmt.Errorf("failed to fetch user %s: %w", userID, err)
	}

	err = validateDocument(userSchema, body)
	if err != nil {
		return nil, persistence.NewUserError("UserByID", userID, err)
	}

	var user models.User

	err = json.Unmarshal(body, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal user %s: %w", userID, err)
	}

	return &user, nil
}

// GetByResourceID scans users for an exact resource id match.
func (ur *UserRepository) GetByResourceID(ctx context.Context, resourceID string) (*models.User, error) {
	root := os.DirFS(path.Join(ur.root, "users"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list user files: %w", err)
	}

	for _, file := range jsonFiles {
		user, err := ur.GetByID(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		if resourceID != "" && user.ResourceID == resourceID {
			return user, nil
		}
	}

	return nil, persistence.NewUserError("UserByResourceID", resourceID, persistence.ErrUserNotFound)
}

func (ur *UserRepository) Save(_ context.Context, user *models.User) error {
	if user.ID == "" {
		return persistence.NewUserError("SaveUser", "", fmt.Errorf("%w: missing id", persistence.ErrInvalidDocument))
	}

	if !isRecordID(user.ID) {
		return persistence.NewUserError("SaveUser", user.ID, fmt.Errorf("%w: id is not a plain name", persistence.ErrInvalidDocument))
	}

	err := os.MkdirAll(path.Join(ur.root, "users"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create users directory: %w", err)
	}

	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user %s: %w", user.ID, err)
	}

	return os.WriteFile(path.Join(ur.root, "users", user.ID+".json"), data, 0600)
}
