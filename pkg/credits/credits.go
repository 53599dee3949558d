// Package credits decides whether a user may run workflows and debits the
// single unit a successful trigger costs.
package credits

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dukex/driveflow/pkg/models"
)

// Store is the slice of persistence the gate writes through.
type Store interface {
	UpdateUserCredits(ctx context.Context, userID string, credits string) error
}

// Admit reports whether a stored credit value allows execution. Unparseable
// values deny.
func Admit(credits string) bool {
	if credits == models.UnlimitedCredits {
		return true
	}

	balance, err := strconv.Atoi(strings.TrimSpace(credits))
	if err != nil {
		return false
	}

	return balance > 0
}

// Gate debits credits through the store.
type Gate struct {
	store Store
}

func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Debit subtracts one unit, clamped at zero, and returns the new balance.
// Unlimited accounts are returned untouched without a store write.
func (g *Gate) Debit(ctx context.Context, user *models.User) (string, error) {
	if user.HasUnlimitedCredits() {
		return user.Credits, nil
	}

	balance, err := strconv.Atoi(strings.TrimSpace(user.Credits))
	if err != nil {
		return user.Credits, fmt.Errorf("invalid credit balance %q for user %s: %w", user.Credits, user.ID, err)
	}

	next := strconv.Itoa(max(balance-1, 0))

	err = g.store.UpdateUserCredits(ctx, user.ID, next)
	if err != nil {
		return user.Credits, fmt.Errorf("failed to debit user %s: %w", user.ID, err)
	}

	return next, nil
}
