// Package admin is the back-office console: order triage, stock edits and catalog upkeep.
package admin

import (
	"strings"

	"github.com/georgemunganga/epharmacy-backend/internal/modules/order"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/payment"
)

// Filter narrows the order list. Empty fields are inactive; active fields combine with AND.
// Query matches order id, customer email or payment transaction reference, ignoring case.
type Filter struct {
	Status        order.Status   `json:"status,omitempty"`
	PaymentStatus payment.Status `json:"paymentStatus,omitempty"`
	Query         string         `json:"q,omitempty"`
}

// FilterOrders returns the orders matching f, preserving ledger order.
func FilterOrders(orders []order.Order, f Filter) []order.Order {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
			continue
		}
		if q != "" && !matches(o, q) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func matches(o order.Order, q string) bool {
	for _, field := range []string{o.ID, o.UserEmail, o.PaymentDetails.TransactionRef()} {
		if field != "" && strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
