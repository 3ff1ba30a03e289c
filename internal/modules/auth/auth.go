package auth

import (
	"context"

	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

// Service defines the interface for authentication-related business logic.
type Service interface {
	// Login checks credentials and returns a signed token for the resulting session.
	Login(ctx context.Context, email, password string) (string, user.Session, error)

	// Issue signs a token carrying the session.
	Issue(sess user.Session) (string, error)

	// Parse validates a token and returns the session it carries.
	Parse(token string) (user.Session, error)
}
