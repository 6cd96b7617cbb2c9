package models

import (
	"time"

	"github.com/google/uuid"
)

// Auth providers a user can be registered with.
const (
	ProviderPassword = "password"
	ProviderGitHub   = "github"
	ProviderGoogle   = "google"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique).
	// Used for login; OAuth logins are matched to accounts by email.
	Email string

	// DisplayName is shown in the UI.
	DisplayName string

	// PasswordHash is the bcrypt hash of the password.
	// Empty for users that only ever signed in through OAuth.
	PasswordHash string

	// Provider is the method the account was created with.
	Provider string

	CreatedAt int64
	UpdatedAt int64
}

// NewUser creates a user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		Provider:     ProviderPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ApprovalCode gates registration. A code can be consumed once.
type ApprovalCode struct {
	Code      string
	CreatedAt int64
	// UsedAt is the Unix timestamp of consumption, 0 while unused.
	UsedAt int64
	// UsedBy is the user ID that consumed the code.
	UsedBy string
}

// Active reports whether the code can still be used.
func (c *ApprovalCode) Active() bool {
	return c.UsedAt == 0
}
