package catalog

import (
	"fmt"
	"math"
	"strings"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
)

// Medicine is a sellable catalog entry. Stock is the shared counter every tab reserves against.
type Medicine struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Strength     string  `json:"strength"`
	Form         string  `json:"form"`
	Price        float64 `json:"price"`
	Stock        int     `json:"stock"`
	Manufacturer string  `json:"manufacturer,omitempty"`
	Category     string  `json:"category,omitempty"`
}

// DisplayName is the label shown in listings and matched by Search.
func (m Medicine) DisplayName() string {
	return fmt.Sprintf("%s %s (%s)", m.Name, m.Strength, m.Form)
}

// Validate checks the fields the admin console may set.
func (m Medicine) Validate() error {
	switch {
	case strings.TrimSpace(m.ID) == "":
		return fmt.Errorf("%w: medicine id is required", apperr.ErrValidation)
	case strings.TrimSpace(m.Name) == "":
		return fmt.Errorf("%w: medicine name is required", apperr.ErrValidation)
	case m.Price < 0 || math.IsNaN(m.Price) || math.IsInf(m.Price, 0):
		return fmt.Errorf("%w: price must be zero or more", apperr.ErrValidation)
	case m.Stock < 0:
		return fmt.Errorf("%w: stock must be zero or more", apperr.ErrValidation)
	}
	return nil
}

// Fallback is the built-in catalog used when no source yields a valid record.
func Fallback() []Medicine {
	return []Medicine{
		{ID: "MED001", Name: "Paracetamol", Strength: "500mg", Form: "Tablet", Price: 10, Stock: 120, Manufacturer: "Demo"},
		{ID: "MED002", Name: "Napa", Strength: "500mg", Form: "Tablet", Price: 6, Stock: 85, Manufacturer: "Demo"},
	}
}

func clone(meds []Medicine) []Medicine {
	if meds == nil {
		return nil
	}
	out := make([]Medicine, len(meds))
	copy(out, meds)
	return out
}
