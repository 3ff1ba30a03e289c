package payment

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the accepted payment methods.
type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/payments/methods", h.listMethods)
}

func (h *Handler) listMethods(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, Methods)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
