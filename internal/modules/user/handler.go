package user

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
)

type Handler struct {
	service   Service
	addresses *AddressBook
}

func NewHandler(service Service, addresses *AddressBook) *Handler {
	return &Handler{service: service, addresses: addresses}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", h.registerUser)
		r.Get("/me", h.me)
		r.Get("/me/address", h.getAddress)
		r.Put("/me/address", h.saveAddress)
		r.Get("/delivery", h.listDeliveryUsers)
	})
}

// profile is the public view of a registry entry.
type profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Phone string `json:"phone,omitempty"`
}

func profileOf(u User) profile {
	return profile{Name: u.Name, Email: u.Email, Role: u.Role, Phone: u.Phone}
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	// Self-registration always yields a customer.
	req.Role = RoleCustomer
	u, err := h.service.Register(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, profileOf(*u))
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess := FromContext(r.Context())
	if !sess.SignedIn() {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "please login first"})
		return
	}
	u, err := h.service.Find(r.Context(), sess.Email)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, profileOf(*u))
}

func (h *Handler) getAddress(w http.ResponseWriter, r *http.Request) {
	sess := FromContext(r.Context())
	respond(w, http.StatusOK, map[string]string{"address": h.addresses.Saved(r.Context(), sess.Email)})
}

func (h *Handler) saveAddress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	addr, err := h.addresses.Save(r.Context(), FromContext(r.Context()).Email, req.Address)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"address": addr})
}

func (h *Handler) listDeliveryUsers(w http.ResponseWriter, r *http.Request) {
	if !FromContext(r.Context()).IsAdmin() {
		respond(w, http.StatusForbidden, map[string]string{"error": "admin only"})
		return
	}
	out := []profile{}
	for _, u := range h.service.DeliveryUsers(r.Context()) {
		out = append(out, profileOf(u))
	}
	respond(w, http.StatusOK, out)
}

func respondError(w http.ResponseWriter, err error) {
	respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
