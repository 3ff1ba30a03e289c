// Package apperr holds the error kinds shared by every module. Domain errors wrap one
// of the sentinels with fmt.Errorf("%w: ...") so callers can branch with errors.Is.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation marks bad input: empty cart, short address, invalid quantity or price.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a referenced medicine, order or user that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a request that contradicts current state, e.g. insufficient
	// stock or an illegal status transition.
	ErrConflict = errors.New("conflict")
	// ErrForbidden marks an actor whose role does not allow the operation.
	ErrForbidden = errors.New("forbidden")
)

// HTTPStatus maps an error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
