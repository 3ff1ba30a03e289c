package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
)

// MinAddressLength is the shortest delivery address accepted anywhere.
const MinAddressLength = 4

// AddressBook stores one delivery address per identity. Reads fall back to the
// legacy shared key written by older clients; writes never touch it.
type AddressBook struct {
	st *store.Store
}

// NewAddressBook creates an address book over the shared store.
func NewAddressBook(st *store.Store) *AddressBook { return &AddressBook{st: st} }

// Saved returns the identity's address, the legacy shared address, or "".
func (b *AddressBook) Saved(ctx context.Context, email string) string {
	if store.NormalizeEmail(email) != "" {
		if v := store.Get(ctx, b.st, store.AddressKey(email), ""); v != "" {
			return v
		}
	}
	return store.Get(ctx, b.st, store.KeyLegacyAddress, "")
}

// Save stores a trimmed address for a signed-in identity.
func (b *AddressBook) Save(ctx context.Context, email, address string) (string, error) {
	if store.NormalizeEmail(email) == "" {
		return "", fmt.Errorf("%w: sign in to save an address", apperr.ErrValidation)
	}
	address = strings.TrimSpace(address)
	if len(address) < MinAddressLength {
		return "", fmt.Errorf("%w: please enter a valid address", apperr.ErrValidation)
	}
	if err := b.st.Set(ctx, store.AddressKey(email), address); err != nil {
		return "", err
	}
	return address, nil
}
