package payment

import (
	"fmt"
	"strings"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
)

// Normalize resolves the method (cash on delivery when empty) and trims the details,
// dropping blank entries. Details are never validated against a gateway.
func Normalize(method string, details Details) (Method, Details, error) {
	m := Method(strings.ToLower(strings.TrimSpace(method)))
	if m == "" {
		m = MethodCOD
	}
	if !m.Valid() {
		return "", nil, fmt.Errorf("%w: unsupported payment method %q", apperr.ErrValidation, method)
	}

	out := Details{}
	for k, v := range details {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		out = nil
	}
	return m, out, nil
}
