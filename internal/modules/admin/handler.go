package admin

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/catalog"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/order"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/payment"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

const maxImportSize = 10 << 20

// Handler exposes admin console HTTP endpoints.
type Handler struct{ console *Console }

func NewHandler(console *Console) *Handler { return &Handler{console: console} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Get("/orders", h.listOrders)
		r.Get("/orders/export", h.exportOrders)
		r.Post("/medicines", h.addMedicine)
		r.Post("/medicines/import", h.importMedicines)
		r.Put("/medicines/{id}/stock", h.updateStock)
		r.Delete("/medicines/{id}", h.deleteMedicine)
		r.Put("/users/{email}/role", h.setRole)
		r.Get("/activity", h.listActivity)
	})
}

func filterFrom(r *http.Request) Filter {
	q := r.URL.Query()
	return Filter{
		Status:        order.Status(q.Get("status")),
		PaymentStatus: payment.Status(q.Get("paymentStatus")),
		Query:         q.Get("q"),
	}
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.console.Orders(r.Context(), user.FromContext(r.Context()), filterFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) exportOrders(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.console.ExportOrders(r.Context(), user.FromContext(r.Context()), filterFrom(r), &buf); err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=orders.xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) addMedicine(w http.ResponseWriter, r *http.Request) {
	var m catalog.Medicine
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	added, err := h.console.AddMedicine(r.Context(), user.FromContext(r.Context()), m)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, added)
}

func (h *Handler) importMedicines(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer file.Close()
	res, err := h.console.ImportMedicines(r.Context(), user.FromContext(r.Context()), file, header.Size)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, res)
}

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stock *int `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Stock == nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "stock is required"})
		return
	}
	m, err := h.console.UpdateStock(r.Context(), user.FromContext(r.Context()), chi.URLParam(r, "id"), *req.Stock)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, m)
}

func (h *Handler) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	if err := h.console.DeleteMedicine(r.Context(), user.FromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role user.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	u, err := h.console.SetRole(r.Context(), user.FromContext(r.Context()), chi.URLParam(r, "email"), req.Role)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"email": u.Email, "role": string(u.Role)})
}

func (h *Handler) listActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := h.console.Activity(r.Context(), user.FromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, entries)
}

func respondError(w http.ResponseWriter, err error) {
	respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
