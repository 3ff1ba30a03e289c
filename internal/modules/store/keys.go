package store

import "strings"

// Persisted keys, one namespace per concern.
const (
	KeyUsers         = "ep_users"
	KeySession       = "ep_session"
	KeyOrders        = "ep_orders"
	KeyCatalog       = "ep_meds_cache"
	KeyActivity      = "ep_activity_log"
	KeyLegacyAddress = "ep_address"

	cartPrefix    = "ep_cart_"
	addressPrefix = "ep_address_"
	guestBucket   = "guest"
)

// NormalizeEmail trims and lower-cases an email so it can serve as a natural key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CartKey returns the cart bucket for an identity; an empty email is the guest bucket.
func CartKey(email string) string {
	e := NormalizeEmail(email)
	if e == "" {
		return cartPrefix + guestBucket
	}
	return cartPrefix + e
}

// CartOwner reports which identity a cart key belongs to. The guest bucket yields "".
func CartOwner(key string) (string, bool) {
	if !strings.HasPrefix(key, cartPrefix) {
		return "", false
	}
	owner := strings.TrimPrefix(key, cartPrefix)
	if owner == guestBucket {
		return "", true
	}
	return owner, true
}

// AddressKey returns the per-identity delivery address key.
func AddressKey(email string) string {
	return addressPrefix + NormalizeEmail(email)
}
