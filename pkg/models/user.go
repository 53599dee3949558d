package models

// UnlimitedCredits marks an account that is never debited.
const UnlimitedCredits = "Unlimited"

// User owns workflows and the execution entitlement they spend.
type User struct {
	ID string `json:"id" validate:"required"`

	// Credits is either a non-negative integer rendered as a string or
	// UnlimitedCredits.
	Credits string `json:"credits"`

	// ResourceID correlates inbound drive notifications with this user.
	ResourceID string `json:"resource_id"`
}

// HasUnlimitedCredits reports whether the user is exempt from debits.
func (u *User) HasUnlimitedCredits() bool {
	return u.Credits == UnlimitedCredits
}
