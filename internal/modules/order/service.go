package order

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/activity"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/cart"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/catalog"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/payment"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

// Service defines the order lifecycle business logic.
type Service interface {
	// Checkout validates the caller's whole cart against fresh stock, then reserves
	// it, records the order and empties the cart. Nothing is mutated on failure.
	Checkout(ctx context.Context, who user.Session, req CheckoutRequest) (*Order, error)

	// Cancel moves a Pending order to Cancelled and returns its stock.
	Cancel(ctx context.Context, who user.Session, id string) (*Order, error)

	// Transition advances an order along the fulfillment graph.
	Transition(ctx context.Context, actor user.Session, id string, to Status) (*Order, error)

	// Assign sets the delivery user of a non-terminal order; "" unassigns.
	Assign(ctx context.Context, actor user.Session, id, email string) (*Order, error)

	// VerifyPayment flips the payment flag to Verified.
	VerifyPayment(ctx context.Context, actor user.Session, id string) (*Order, error)

	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) []Order
	ListForCustomer(ctx context.Context, email string) []Order
	ListAssigned(ctx context.Context, email string) []Order
}

// Option customizes the order service.
type Option func(*service)

// WithLogger overrides the service logger.
func WithLogger(l *log.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAddressBook remembers the checkout address for the customer.
func WithAddressBook(b *user.AddressBook) Option {
	return func(s *service) { s.addresses = b }
}

// service serializes its own mutating calls, emulating one tab running each
// operation to completion. Separate services sharing a backend are not coordinated:
// two of them can both pass checkout validation and both decrement the same stock.
type service struct {
	repo      Repository
	catalog   *catalog.Cache
	carts     *cart.Manager
	users     user.Service
	activity  *activity.Log
	addresses *user.AddressBook
	logger    *log.Logger
	now       func() time.Time

	mu sync.Mutex
}

// NewService creates a new order service.
func NewService(repo Repository, meds *catalog.Cache, carts *cart.Manager, users user.Service, trail *activity.Log, opts ...Option) Service {
	s := &service{
		repo:     repo,
		catalog:  meds,
		carts:    carts,
		users:    users,
		activity: trail,
		logger:   log.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Cancel(ctx context.Context, who user.Session, id string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel(ctx, who, id)
}

func (s *service) cancel(ctx context.Context, who user.Session, id string) (*Order, error) {
	orders := s.repo.ListOrders(ctx)
	idx := indexOf(orders, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: order %s", apperr.ErrNotFound, id)
	}
	o := orders[idx]
	if !who.IsAdmin() && !o.OwnedBy(who.Email) {
		return nil, fmt.Errorf("%w: only the customer or an admin can cancel %s", apperr.ErrForbidden, id)
	}
	if o.Status != StatusPending {
		return nil, fmt.Errorf("%w: only Pending orders can be cancelled (current: %s)", apperr.ErrConflict, o.Status)
	}

	meds := s.catalog.Fresh(ctx)
	for _, it := range o.Items {
		i := medicineIndex(meds, it.MedicineID)
		if i < 0 {
			s.logger.Printf("order: %s: medicine %s no longer in catalog, %d units not restored", o.ID, it.MedicineID, it.Qty)
			continue
		}
		meds[i].Stock += it.Qty
	}
	if err := s.catalog.Save(ctx, meds); err != nil {
		return nil, fmt.Errorf("failed to restore stock: %w", err)
	}

	o.Status = StatusCancelled
	o.UpdatedAt = s.now()
	orders[idx] = o
	if err := s.repo.SaveOrders(ctx, orders); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	s.activity.Recordf(ctx, who, activity.ActionOrderCancel, "%s cancelled, stock restored", o.ID)
	return &o, nil
}

func (s *service) Transition(ctx context.Context, actor user.Session, id string, to Status) (*Order, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrValidation, to)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if to == StatusCancelled {
		return s.cancel(ctx, actor, id)
	}

	orders := s.repo.ListOrders(ctx)
	idx := indexOf(orders, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: order %s", apperr.ErrNotFound, id)
	}
	o := orders[idx]

	switch {
	case actor.IsAdmin():
	case to == StatusDelivered && actor.Role == user.RoleDelivery && o.IsAssignedTo(actor.Email):
	default:
		return nil, fmt.Errorf("%w: %s may not mark %s as %s", apperr.ErrForbidden, actor.Label(), id, to)
	}
	if !CanTransition(o.Status, to) {
		return nil, fmt.Errorf("%w: cannot transition order from %s to %s", apperr.ErrConflict, o.Status, to)
	}

	from := o.Status
	o.Status = to
	o.UpdatedAt = s.now()
	orders[idx] = o
	if err := s.repo.SaveOrders(ctx, orders); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	s.activity.Recordf(ctx, actor, activity.ActionOrderStatus, "%s %s -> %s", o.ID, from, to)
	return &o, nil
}

func (s *service) Assign(ctx context.Context, actor user.Session, id, email string) (*Order, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins assign deliveries", apperr.ErrForbidden)
	}
	email = store.NormalizeEmail(email)
	if email != "" {
		u, err := s.users.Find(ctx, email)
		if err != nil {
			return nil, err
		}
		if u.Role != user.RoleDelivery {
			return nil, fmt.Errorf("%w: %s is not a delivery user", apperr.ErrValidation, email)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	orders := s.repo.ListOrders(ctx)
	idx := indexOf(orders, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: order %s", apperr.ErrNotFound, id)
	}
	o := orders[idx]
	if o.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", apperr.ErrConflict, o.ID, o.Status)
	}
	o.AssignedTo = email
	o.UpdatedAt = s.now()
	orders[idx] = o
	if err := s.repo.SaveOrders(ctx, orders); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	if email == "" {
		s.activity.Recordf(ctx, actor, activity.ActionOrderAssign, "%s unassigned", o.ID)
	} else {
		s.activity.Recordf(ctx, actor, activity.ActionOrderAssign, "%s assigned to %s", o.ID, email)
	}
	return &o, nil
}

func (s *service) VerifyPayment(ctx context.Context, actor user.Session, id string) (*Order, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins verify payments", apperr.ErrForbidden)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := s.repo.ListOrders(ctx)
	idx := indexOf(orders, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: order %s", apperr.ErrNotFound, id)
	}
	o := orders[idx]
	switch {
	case o.Status == StatusCancelled:
		return nil, fmt.Errorf("%w: %s is cancelled", apperr.ErrConflict, o.ID)
	case o.PaymentStatus == payment.StatusVerified:
		return nil, fmt.Errorf("%w: payment for %s is already verified", apperr.ErrConflict, o.ID)
	}
	o.PaymentStatus = payment.StatusVerified
	o.UpdatedAt = s.now()
	orders[idx] = o
	if err := s.repo.SaveOrders(ctx, orders); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	s.activity.Recordf(ctx, actor, activity.ActionPaymentVerify, "%s payment verified", o.ID)
	return &o, nil
}

func (s *service) Get(ctx context.Context, id string) (*Order, error) {
	orders := s.repo.ListOrders(ctx)
	idx := indexOf(orders, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: order %s", apperr.ErrNotFound, id)
	}
	o := orders[idx]
	return &o, nil
}

func (s *service) List(ctx context.Context) []Order {
	return s.repo.ListOrders(ctx)
}

func (s *service) ListForCustomer(ctx context.Context, email string) []Order {
	var out []Order
	for _, o := range s.repo.ListOrders(ctx) {
		if o.OwnedBy(email) {
			out = append(out, o)
		}
	}
	return out
}

func (s *service) ListAssigned(ctx context.Context, email string) []Order {
	var out []Order
	for _, o := range s.repo.ListOrders(ctx) {
		if o.IsAssignedTo(email) {
			out = append(out, o)
		}
	}
	return out
}

// ── helpers ───────────────────────────────────────────────────────────────────

// generateOrderID creates a human-readable order id: ORD-YYYYMMDD-XXXXXXXX
func generateOrderID(now time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

func indexOf(orders []Order, id string) int {
	for i, o := range orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func medicineIndex(meds []catalog.Medicine, id string) int {
	for i, m := range meds {
		if m.ID == id {
			return i
		}
	}
	return -1
}
