package user

import (
	"context"
	"strings"
)

// Role governs which operations an identity may perform.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleDelivery Role = "delivery"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleDelivery:
		return true
	}
	return false
}

// User is a registry entry. Email is the natural key; Password holds a bcrypt hash.
type User struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
	Phone    string `json:"phone,omitempty"`
}

// Session is the signed-in identity of a tab. It is a copy of a User taken at sign-in
// and is only refreshed by an explicit Resync. The zero Session is the guest.
type Session struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Phone string `json:"phone,omitempty"`
}

// SignedIn reports whether the session belongs to a registered identity.
func (s Session) SignedIn() bool { return strings.TrimSpace(s.Email) != "" }

// Label is how the identity is shown in activity entries.
func (s Session) Label() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	if s.SignedIn() {
		return s.Email
	}
	return "Guest"
}

// IsAdmin reports whether the session carries the admin role.
func (s Session) IsAdmin() bool { return s.SignedIn() && s.Role == RoleAdmin }

// SessionOf derives the session copy of a registry entry.
func SessionOf(u User) Session {
	role := u.Role
	if role == "" {
		role = RoleCustomer
	}
	name := u.Name
	if name == "" {
		name = u.Email
	}
	return Session{Name: name, Email: u.Email, Role: role, Phone: u.Phone}
}

// RegisterRequest holds data for creating a registry entry.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     Role   `json:"role,omitempty"`
}

type sessionKey struct{}

// WithSession returns a context carrying the caller's session.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the caller's session, or the guest session.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey{}).(Session)
	return s
}
