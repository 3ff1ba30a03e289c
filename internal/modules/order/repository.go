package order

import (
	"context"

	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
)

// Repository defines data access for the order ledger, newest order first.
type Repository interface {
	// ListOrders returns the whole ledger; unreadable data yields an empty ledger.
	ListOrders(ctx context.Context) []Order

	// SaveOrders replaces the ledger.
	SaveOrders(ctx context.Context, orders []Order) error
}

type storeRepository struct{ st *store.Store }

// NewStoreRepository keeps the ledger under the shared orders key.
func NewStoreRepository(st *store.Store) Repository {
	return &storeRepository{st: st}
}

func (r *storeRepository) ListOrders(ctx context.Context) []Order {
	return store.Get[[]Order](ctx, r.st, store.KeyOrders, nil)
}

func (r *storeRepository) SaveOrders(ctx context.Context, orders []Order) error {
	if orders == nil {
		orders = []Order{}
	}
	return r.st.Set(ctx, store.KeyOrders, orders)
}
