package order

import (
	"fmt"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
)

// StockError reports a cart line that asks for more than is left.
type StockError struct {
	MedicineID string
	Name       string
	Requested  int
	Remaining  int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, only %d left", e.Name, e.Requested, e.Remaining)
}

// Unwrap classifies the error as a conflict.
func (e *StockError) Unwrap() error { return apperr.ErrConflict }
