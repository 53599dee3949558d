package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukex/driveflow/pkg/models"
	"github.com/dukex/driveflow/pkg/persistence"
)

// UserRepository handles user-related database operations.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByResourceID(ctx context.Context, resourceID string) (*models.User, error) {
	query := `SELECT id, credits, COALESCE(resource_id, '') FROM users WHERE resource_id = $1`

	var user models.User

	err := r.db.QueryRowContext(ctx, query, resourceID).Scan(&user.ID, &user.Credits, &user.ResourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewUserError("UserByResourceID", resourceID, persistence.ErrUserNotFound)
		}

		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) UpdateCredits(ctx context.Context, userID string, credits string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET credits = $2 WHERE id = $1`, userID, credits)
	if err != nil {
		return fmt.Errorf("failed to update user credits: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewUserError("UpdateUserCredits", userID, persistence.ErrUserNotFound)
	}

	return nil
}

func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return persistence.NewUserError("SaveUser", "", fmt.Errorf("%w: missing id", persistence.ErrInvalidDocument))
	}

	query := `
		INSERT INTO users (id, credits, resource_id)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (id) DO UPDATE SET
			credits = EXCLUDED.credits,
			resource_id = EXCLUDED.resource_id
	`

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Credits, user.ResourceID)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}
