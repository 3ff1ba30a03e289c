package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/activity"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/cart"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/payment"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

func (s *service) Checkout(ctx context.Context, who user.Session, req CheckoutRequest) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !who.SignedIn() {
		return nil, fmt.Errorf("%w: please sign in to checkout", apperr.ErrValidation)
	}
	lines := s.carts.Lines(ctx, who)
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cart empty", apperr.ErrValidation)
	}
	address := strings.TrimSpace(req.Address)
	if len(address) < user.MinAddressLength {
		return nil, fmt.Errorf("%w: address required", apperr.ErrValidation)
	}
	method, details, err := payment.Normalize(req.PaymentMethod, req.PaymentDetails)
	if err != nil {
		return nil, err
	}

	// Validate every line against fresh stock before touching anything.
	meds := s.catalog.Fresh(ctx)
	want := make(map[string]int, len(lines))
	for _, l := range lines {
		want[l.MedicineID] += l.Qty
	}
	for _, l := range lines {
		i := medicineIndex(meds, l.MedicineID)
		if i < 0 {
			return nil, fmt.Errorf("%w: item not found: %s", apperr.ErrNotFound, l.Name)
		}
		if meds[i].Stock < want[l.MedicineID] {
			return nil, &StockError{
				MedicineID: l.MedicineID,
				Name:       meds[i].DisplayName(),
				Requested:  want[l.MedicineID],
				Remaining:  meds[i].Stock,
			}
		}
	}

	// Commit.
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		meds[medicineIndex(meds, l.MedicineID)].Stock -= l.Qty
		items = append(items, Item{
			MedicineID: l.MedicineID,
			Name:       l.Name,
			Strength:   l.Strength,
			Form:       l.Form,
			Price:      l.Price,
			Qty:        l.Qty,
		})
	}
	if err := s.catalog.Save(ctx, meds); err != nil {
		return nil, fmt.Errorf("failed to reserve stock: %w", err)
	}

	now := s.now()
	o := Order{
		ID:             generateOrderID(now),
		UserEmail:      who.Email,
		UserName:       who.Name,
		Address:        address,
		Items:          items,
		TotalPrice:     cart.Total(lines),
		Status:         StatusPending,
		PaymentStatus:  payment.StatusUnverified,
		PaymentMethod:  method,
		PaymentDetails: details,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	orders := append([]Order{o}, s.repo.ListOrders(ctx)...)
	if err := s.repo.SaveOrders(ctx, orders); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	if err := s.carts.Clear(ctx, who); err != nil {
		s.logger.Printf("order: %s placed but cart not cleared: %v", o.ID, err)
	}
	if s.addresses != nil {
		if _, err := s.addresses.Save(ctx, who.Email, address); err != nil {
			s.logger.Printf("order: unable to remember address for %s: %v", who.Email, err)
		}
	}
	s.activity.Recordf(ctx, who, activity.ActionCheckout, "%s placed, %d item(s), total %.2f", o.ID, len(items), o.TotalPrice)
	return &o, nil
}
