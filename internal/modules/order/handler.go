package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

// Handler exposes order HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", h.checkout)
		r.Get("/", h.listMyOrders)
		r.Get("/assigned", h.listAssigned)
		r.Get("/{id}", h.getOrder)
		r.Post("/{id}/cancel", h.cancelOrder)
		r.Patch("/{id}/status", h.updateStatus)
		r.Put("/{id}/assignment", h.assign)
		r.Post("/{id}/payment/verify", h.verifyPayment)
	})
}

// stockErrorBody names the offending line so clients can point at it.
type stockErrorBody struct {
	Error      string `json:"error"`
	MedicineID string `json:"medicineId"`
	Requested  int    `json:"requested"`
	Remaining  int    `json:"remaining"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.Checkout(r.Context(), user.FromContext(r.Context()), req)
	if err != nil {
		var stock *StockError
		if errors.As(err, &stock) {
			respond(w, http.StatusConflict, stockErrorBody{
				Error:      err.Error(),
				MedicineID: stock.MedicineID,
				Requested:  stock.Requested,
				Remaining:  stock.Remaining,
			})
			return
		}
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, o)
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	sess := user.FromContext(r.Context())
	if !sess.SignedIn() {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "please login first"})
		return
	}
	respond(w, http.StatusOK, orEmpty(h.service.ListForCustomer(r.Context(), sess.Email)))
}

func (h *Handler) listAssigned(w http.ResponseWriter, r *http.Request) {
	sess := user.FromContext(r.Context())
	if sess.Role != user.RoleDelivery {
		respond(w, http.StatusForbidden, map[string]string{"error": "delivery users only"})
		return
	}
	respond(w, http.StatusOK, orEmpty(h.service.ListAssigned(r.Context(), sess.Email)))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	if !o.VisibleTo(user.FromContext(r.Context())) {
		respond(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Cancel(r.Context(), user.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.Transition(r.Context(), user.FromContext(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.Assign(r.Context(), user.FromContext(r.Context()), chi.URLParam(r, "id"), req.Email)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.VerifyPayment(r.Context(), user.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func orEmpty(orders []Order) []Order {
	if orders == nil {
		return []Order{}
	}
	return orders
}

func respondError(w http.ResponseWriter, err error) {
	respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
