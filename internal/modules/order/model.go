package order

import (
	"time"

	"github.com/georgemunganga/epharmacy-backend/internal/modules/payment"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

// Status represents the fulfillment state of an order.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// Item is a line frozen at checkout. It no longer follows the catalog.
type Item struct {
	MedicineID string  `json:"medicineId"`
	Name       string  `json:"name"`
	Strength   string  `json:"strength"`
	Form       string  `json:"form"`
	Price      float64 `json:"price"`
	Qty        int     `json:"qty"`
}

// Order is a durable purchase. Items and TotalPrice never change after creation;
// only Status, PaymentStatus, AssignedTo and UpdatedAt do.
type Order struct {
	ID             string          `json:"id"`
	UserEmail      string          `json:"userEmail"`
	UserName       string          `json:"userName"`
	Address        string          `json:"address"`
	Items          []Item          `json:"items"`
	TotalPrice     float64         `json:"totalPrice"`
	Status         Status          `json:"status"`
	PaymentStatus  payment.Status  `json:"paymentStatus"`
	PaymentMethod  payment.Method  `json:"paymentMethod"`
	PaymentDetails payment.Details `json:"paymentDetails,omitempty"`
	AssignedTo     string          `json:"assignedTo"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// OwnedBy reports whether email placed the order.
func (o Order) OwnedBy(email string) bool {
	e := store.NormalizeEmail(email)
	return e != "" && store.NormalizeEmail(o.UserEmail) == e
}

// IsAssignedTo reports whether the order is assigned to email.
func (o Order) IsAssignedTo(email string) bool {
	e := store.NormalizeEmail(email)
	return e != "" && store.NormalizeEmail(o.AssignedTo) == e
}

// VisibleTo reports whether the session may read the order.
func (o Order) VisibleTo(who user.Session) bool {
	return who.IsAdmin() || o.OwnedBy(who.Email) || (who.Role == user.RoleDelivery && o.IsAssignedTo(who.Email))
}

// CheckoutRequest is the payload for converting the caller's cart into an order.
type CheckoutRequest struct {
	Address        string          `json:"address"`
	PaymentMethod  string          `json:"paymentMethod,omitempty"`
	PaymentDetails payment.Details `json:"paymentDetails,omitempty"`
}

// UpdateStatusRequest asks for a status transition.
type UpdateStatusRequest struct {
	Status Status `json:"status"`
}

// AssignRequest sets or clears the delivery user.
type AssignRequest struct {
	Email string `json:"email"`
}
