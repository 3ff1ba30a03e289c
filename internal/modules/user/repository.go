package user

import "context"

// Repository defines storage for the user registry and the tab's session.
type Repository interface {
	// ListUsers returns the registry; unreadable data yields an empty registry.
	ListUsers(ctx context.Context) []User

	// SaveUsers replaces the registry.
	SaveUsers(ctx context.Context, users []User) error

	// GetSession returns the persisted session, if any.
	GetSession(ctx context.Context) (Session, bool)

	// SetSession persists the session.
	SetSession(ctx context.Context, s Session) error

	// ClearSession removes the session.
	ClearSession(ctx context.Context) error
}
