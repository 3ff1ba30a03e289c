package payment

import "strings"

// Method is how a customer intends to pay. It is recorded on the order and never charged.
type Method string

const (
	MethodCOD     Method = "cod"
	MethodMTNMomo Method = "mtn_momo"
	MethodAirtel  Method = "airtel_money"
	MethodCard    Method = "card"
)

// Methods lists the accepted methods in display order.
var Methods = []Method{MethodCOD, MethodMTNMomo, MethodAirtel, MethodCard}

// Status is the order's payment flag.
type Status string

const (
	StatusUnverified Status = "Unverified"
	StatusVerified   Status = "Verified"
)

// Details is opaque, user-supplied payment metadata such as a transaction id or payer phone.
type Details map[string]string

// Detail keys the storefront understands.
const (
	DetailTransactionID = "transactionId"
	DetailPhone         = "phone"
)

// TransactionRef returns the user-supplied transaction reference, if any.
func (d Details) TransactionRef() string {
	return strings.TrimSpace(d[DetailTransactionID])
}

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}
