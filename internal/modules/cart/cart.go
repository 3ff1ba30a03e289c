// Package cart keeps one shopping cart per identity in the shared store.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/catalog"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

// Line is a cart entry. Name, strength, form and price are snapshotted when the
// medicine is first added.
type Line struct {
	MedicineID string  `json:"medicineId"`
	Name       string  `json:"name"`
	Strength   string  `json:"strength"`
	Form       string  `json:"form"`
	Price      float64 `json:"price"`
	Qty        int     `json:"qty"`
}

// Subtotal is price times quantity.
func (l Line) Subtotal() float64 { return l.Price * float64(l.Qty) }

// Total sums every line's subtotal exactly. Rounding is left to display.
func Total(lines []Line) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}

// Count is the badge number: the sum of quantities.
func Count(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Qty
	}
	return n
}

// Manager reads and writes carts. Switching identity never merges or drops carts;
// each identity and the guest have their own bucket.
type Manager struct {
	st *store.Store
	mu sync.Mutex
}

// NewManager creates a cart manager over the shared store.
func NewManager(st *store.Store) *Manager { return &Manager{st: st} }

// Lines returns the identity's cart; the guest session reads the guest bucket.
func (m *Manager) Lines(ctx context.Context, who user.Session) []Line {
	return store.Get[[]Line](ctx, m.st, store.CartKey(who.Email), nil)
}

// Add puts qty units of med in the identity's cart, merging with an existing line.
func (m *Manager) Add(ctx context.Context, who user.Session, med catalog.Medicine, qty int) ([]Line, error) {
	if !who.SignedIn() {
		return nil, fmt.Errorf("%w: you must be signed in to add items to the cart", apperr.ErrValidation)
	}
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", apperr.ErrValidation)
	}
	if med.Stock <= 0 {
		return nil, fmt.Errorf("%w: %s is out of stock", apperr.ErrConflict, med.DisplayName())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.Lines(ctx, who)
	merged := false
	for i := range lines {
		if lines[i].MedicineID == med.ID {
			lines[i].Qty += qty
			merged = true
			break
		}
	}
	if !merged {
		lines = append(lines, Line{
			MedicineID: med.ID,
			Name:       med.Name,
			Strength:   med.Strength,
			Form:       med.Form,
			Price:      med.Price,
			Qty:        qty,
		})
	}
	return lines, m.save(ctx, who, lines)
}

// Update sets the quantity of an existing line.
func (m *Manager) Update(ctx context.Context, who user.Session, medicineID string, qty int) ([]Line, error) {
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", apperr.ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.Lines(ctx, who)
	idx := indexOf(lines, medicineID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s is not in the cart", apperr.ErrNotFound, medicineID)
	}
	lines[idx].Qty = qty
	return lines, m.save(ctx, who, lines)
}

// Remove drops a line. Removing an absent line is not an error.
func (m *Manager) Remove(ctx context.Context, who user.Session, medicineID string) ([]Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.Lines(ctx, who)
	idx := indexOf(lines, medicineID)
	if idx < 0 {
		return lines, nil
	}
	lines = append(lines[:idx], lines[idx+1:]...)
	return lines, m.save(ctx, who, lines)
}

// Clear empties the identity's cart.
func (m *Manager) Clear(ctx context.Context, who user.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(ctx, who, []Line{})
}

func (m *Manager) save(ctx context.Context, who user.Session, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	if err := m.st.Set(ctx, store.CartKey(who.Email), lines); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func indexOf(lines []Line, medicineID string) int {
	for i, l := range lines {
		if l.MedicineID == medicineID {
			return i
		}
	}
	return -1
}
