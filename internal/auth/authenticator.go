package auth

import (
	"context"

	"github.com/mmynk/worklog/internal/models"
)

// Authenticator defines the interface for credential-based authentication.
// OAuth logins go through OAuthAuthenticator instead because they have no
// credential to register.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	// approvalCode must be an unused approval code; it is consumed on success.
	Register(ctx context.Context, email, displayName, credential, approvalCode string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
