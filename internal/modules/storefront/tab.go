// Package storefront assembles everything one tab needs over a shared backend.
package storefront

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/activity"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/admin"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/cart"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/catalog"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/order"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/payment"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/tabsync"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

// Options configures a tab. Zero values use defaults.
type Options struct {
	Source     catalog.Source
	Renderer   tabsync.Renderer
	Logger     *log.Logger
	BcryptCost int
}

// Tab is one client of the shared store: its own handle, caches and services.
type Tab struct {
	Store     *store.Store
	Catalog   *catalog.Cache
	Users     user.Service
	Addresses *user.AddressBook
	Carts     *cart.Manager
	Orders    order.Service
	Activity  *activity.Log
	Console   *admin.Console
	Sync      *tabsync.Syncer
}

// Open wires a tab over backend and bus and loads the catalog.
func Open(ctx context.Context, backend store.Backend, bus *store.Bus, opts Options) (*Tab, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	view := opts.Renderer
	if view == nil {
		view = tabsync.Discard
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	st := store.New(backend, bus, store.WithLogger(logger))
	t := &Tab{
		Store:     st,
		Catalog:   catalog.NewCache(st, opts.Source, catalog.WithLogger(logger)),
		Users:     user.NewServiceWithCost(user.NewStoreRepository(st), cost),
		Addresses: user.NewAddressBook(st),
		Carts:     cart.NewManager(st),
		Activity:  activity.New(st, logger),
	}
	t.Orders = order.NewService(order.NewStoreRepository(st), t.Catalog, t.Carts, t.Users, t.Activity,
		order.WithLogger(logger), order.WithAddressBook(t.Addresses))
	t.Console = admin.NewConsole(t.Orders, t.Catalog, t.Users, t.Activity)
	t.Sync = tabsync.New(st, t.Users, t.Carts, t.Catalog, view, tabsync.WithLogger(logger))

	if err := t.Catalog.EnsureLoaded(ctx); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return t, nil
}

// Session is the tab's current identity.
func (t *Tab) Session(ctx context.Context) user.Session { return t.Users.Current(ctx) }

// AddToCart adds qty of a catalog medicine to the current identity's cart.
func (t *Tab) AddToCart(ctx context.Context, medicineID string, qty int) ([]cart.Line, error) {
	med, ok := t.Catalog.Get(medicineID)
	if !ok {
		return nil, fmt.Errorf("%w: medicine %s", apperr.ErrNotFound, medicineID)
	}
	return t.Carts.Add(ctx, t.Session(ctx), med, qty)
}

// Cart returns the current identity's cart.
func (t *Tab) Cart(ctx context.Context) []cart.Line {
	return t.Carts.Lines(ctx, t.Session(ctx))
}

// Checkout places an order from the current cart.
func (t *Tab) Checkout(ctx context.Context, address string, method payment.Method, details payment.Details) (*order.Order, error) {
	return t.Orders.Checkout(ctx, t.Session(ctx), order.CheckoutRequest{
		Address:        address,
		PaymentMethod:  string(method),
		PaymentDetails: details,
	})
}

// CancelOrder cancels one of the current identity's Pending orders.
func (t *Tab) CancelOrder(ctx context.Context, id string) (*order.Order, error) {
	return t.Orders.Cancel(ctx, t.Session(ctx), id)
}

// MyOrders lists the current identity's orders, newest first.
func (t *Tab) MyOrders(ctx context.Context) []order.Order {
	return t.Orders.ListForCustomer(ctx, t.Session(ctx).Email)
}

// SavedAddress is the current identity's remembered delivery address.
func (t *Tab) SavedAddress(ctx context.Context) string {
	return t.Addresses.Saved(ctx, t.Session(ctx).Email)
}
