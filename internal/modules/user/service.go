package user

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
)

// ErrInvalidCredentials is returned when no registry entry matches email and password.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", apperr.ErrValidation)

// Service is the session directory: the durable user registry plus the tab's
// current session.
type Service interface {
	// Register validates and stores a new registry entry. Role defaults to customer.
	Register(ctx context.Context, req RegisterRequest) (*User, error)

	// Authenticate checks credentials without touching the session.
	Authenticate(ctx context.Context, email, password string) (*User, error)

	// SignIn authenticates and persists the resulting session.
	SignIn(ctx context.Context, email, password string) (Session, error)

	// SignOut removes the session.
	SignOut(ctx context.Context) error

	// Current returns the persisted session or the guest session.
	Current(ctx context.Context) Session

	// Resync re-derives the session from the registry after profile or role edits.
	Resync(ctx context.Context) (Session, error)

	Find(ctx context.Context, email string) (*User, error)
	Users(ctx context.Context) []User
	DeliveryUsers(ctx context.Context) []User

	// UpdateProfile and SetRole change the registry only; sessions keep their copy.
	UpdateProfile(ctx context.Context, email, name, phone string) (*User, error)
	SetRole(ctx context.Context, email string, role Role) (*User, error)
}

type service struct {
	repo Repository
	cost int
}

// NewService creates a new user service.
func NewService(repo Repository) Service {
	return &service{repo: repo, cost: bcrypt.DefaultCost}
}

// NewServiceWithCost is NewService with a custom bcrypt cost, used to keep tests fast.
func NewServiceWithCost(repo Repository, cost int) Service {
	return &service{repo: repo, cost: cost}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	name := strings.TrimSpace(req.Name)
	email := store.NormalizeEmail(req.Email)
	if len(name) < 2 {
		return nil, fmt.Errorf("%w: name must be at least 2 characters", apperr.ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: enter a valid email", apperr.ErrValidation)
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", apperr.ErrValidation)
	}
	role := req.Role
	if role == "" {
		role = RoleCustomer
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, role)
	}

	users := s.repo.ListUsers(ctx)
	if indexOf(users, email) >= 0 {
		return nil, fmt.Errorf("%w: %s is already registered", apperr.ErrConflict, email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("unable to secure password: %w", err)
	}

	u := User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     role,
		Phone:    strings.TrimSpace(req.Phone),
	}
	if err := s.repo.SaveUsers(ctx, append(users, u)); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	users := s.repo.ListUsers(ctx)
	idx := indexOf(users, email)
	if idx < 0 {
		return nil, ErrInvalidCredentials
	}
	u := users[idx]
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

func (s *service) SignIn(ctx context.Context, email, password string) (Session, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	sess := SessionOf(*u)
	if err := s.repo.SetSession(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *service) SignOut(ctx context.Context) error {
	return s.repo.ClearSession(ctx)
}

func (s *service) Current(ctx context.Context) Session {
	sess, _ := s.repo.GetSession(ctx)
	return sess
}

func (s *service) Resync(ctx context.Context) (Session, error) {
	sess, ok := s.repo.GetSession(ctx)
	if !ok {
		return Session{}, nil
	}
	users := s.repo.ListUsers(ctx)
	idx := indexOf(users, sess.Email)
	if idx < 0 {
		return Session{}, s.repo.ClearSession(ctx)
	}
	fresh := SessionOf(users[idx])
	if fresh == sess {
		return sess, nil
	}
	if err := s.repo.SetSession(ctx, fresh); err != nil {
		return Session{}, err
	}
	return fresh, nil
}

func (s *service) Find(ctx context.Context, email string) (*User, error) {
	users := s.repo.ListUsers(ctx)
	idx := indexOf(users, email)
	if idx < 0 {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, store.NormalizeEmail(email))
	}
	u := users[idx]
	return &u, nil
}

func (s *service) Users(ctx context.Context) []User {
	return s.repo.ListUsers(ctx)
}

func (s *service) DeliveryUsers(ctx context.Context) []User {
	var out []User
	for _, u := range s.repo.ListUsers(ctx) {
		if u.Role == RoleDelivery {
			out = append(out, u)
		}
	}
	return out
}

func (s *service) UpdateProfile(ctx context.Context, email, name, phone string) (*User, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return nil, fmt.Errorf("%w: name must be at least 2 characters", apperr.ErrValidation)
	}
	return s.mutate(ctx, email, func(u *User) {
		u.Name = name
		u.Phone = strings.TrimSpace(phone)
	})
}

func (s *service) SetRole(ctx context.Context, email string, role Role) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, role)
	}
	return s.mutate(ctx, email, func(u *User) { u.Role = role })
}

func (s *service) mutate(ctx context.Context, email string, fn func(*User)) (*User, error) {
	users := s.repo.ListUsers(ctx)
	idx := indexOf(users, email)
	if idx < 0 {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, store.NormalizeEmail(email))
	}
	fn(&users[idx])
	if err := s.repo.SaveUsers(ctx, users); err != nil {
		return nil, err
	}
	u := users[idx]
	return &u, nil
}

func indexOf(users []User, email string) int {
	e := store.NormalizeEmail(email)
	if e == "" {
		return -1
	}
	for i, u := range users {
		if store.NormalizeEmail(u.Email) == e {
			return i
		}
	}
	return -1
}
