package user

import (
	"context"

	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
)

type storeRepository struct{ st *store.Store }

// NewStoreRepository creates a repository over the shared key/value store.
func NewStoreRepository(st *store.Store) Repository { return &storeRepository{st: st} }

func (r *storeRepository) ListUsers(ctx context.Context) []User {
	return store.Get(ctx, r.st, store.KeyUsers, []User{})
}

func (r *storeRepository) SaveUsers(ctx context.Context, users []User) error {
	return r.st.Set(ctx, store.KeyUsers, users)
}

func (r *storeRepository) GetSession(ctx context.Context) (Session, bool) {
	s, ok := store.Lookup[Session](ctx, r.st, store.KeySession)
	if !ok || !s.SignedIn() {
		return Session{}, false
	}
	return s, true
}

func (r *storeRepository) SetSession(ctx context.Context, s Session) error {
	return r.st.Set(ctx, store.KeySession, s)
}

func (r *storeRepository) ClearSession(ctx context.Context) error {
	return r.st.Remove(ctx, store.KeySession)
}
