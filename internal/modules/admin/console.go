package admin

import (
	"context"
	"fmt"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/activity"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/catalog"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/order"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

// Console gates every operation on the admin role. Catalog edits bypass checkout
// reservation entirely.
type Console struct {
	orders   order.Service
	catalog  *catalog.Cache
	users    user.Service
	activity *activity.Log
}

// NewConsole creates an admin console.
func NewConsole(orders order.Service, meds *catalog.Cache, users user.Service, trail *activity.Log) *Console {
	return &Console{orders: orders, catalog: meds, users: users, activity: trail}
}

func requireAdmin(actor user.Session) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin only", apperr.ErrForbidden)
	}
	return nil
}

// Orders lists the ledger through f.
func (c *Console) Orders(ctx context.Context, actor user.Session, f Filter) ([]order.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return FilterOrders(c.orders.List(ctx), f), nil
}

// UpdateStock overwrites a medicine's stock.
func (c *Console) UpdateStock(ctx context.Context, actor user.Session, id string, stock int) (catalog.Medicine, error) {
	if err := requireAdmin(actor); err != nil {
		return catalog.Medicine{}, err
	}
	m, before, err := c.catalog.SetStock(ctx, id, stock)
	if err != nil {
		return catalog.Medicine{}, err
	}
	c.activity.Recordf(ctx, actor, activity.ActionStockUpdate, "%s stock %d -> %d", m.ID, before, m.Stock)
	return m, nil
}

// AddMedicine appends a medicine to the catalog.
func (c *Console) AddMedicine(ctx context.Context, actor user.Session, m catalog.Medicine) (catalog.Medicine, error) {
	if err := requireAdmin(actor); err != nil {
		return catalog.Medicine{}, err
	}
	added, err := c.catalog.Add(ctx, m)
	if err != nil {
		return catalog.Medicine{}, err
	}
	c.activity.Recordf(ctx, actor, activity.ActionCatalogAdd, "%s %s added", added.ID, added.DisplayName())
	return added, nil
}

// DeleteMedicine removes a medicine. Existing orders keep their snapshots.
func (c *Console) DeleteMedicine(ctx context.Context, actor user.Session, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := c.catalog.Delete(ctx, id); err != nil {
		return err
	}
	c.activity.Recordf(ctx, actor, activity.ActionCatalogDelete, "%s deleted", id)
	return nil
}

// SetRole changes a registry entry's role. Live sessions keep their old role until resynced.
func (c *Console) SetRole(ctx context.Context, actor user.Session, email string, role user.Role) (*user.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	u, err := c.users.SetRole(ctx, email, role)
	if err != nil {
		return nil, err
	}
	c.activity.Recordf(ctx, actor, activity.ActionRoleChange, "%s is now %s", u.Email, u.Role)
	return u, nil
}

// Activity returns the audit trail, newest first.
func (c *Console) Activity(ctx context.Context, actor user.Session) ([]activity.Entry, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return c.activity.Entries(ctx), nil
}
