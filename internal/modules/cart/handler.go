package cart

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/catalog"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

// Handler exposes the caller's cart.
type Handler struct {
	carts   *Manager
	catalog *catalog.Cache
}

func NewHandler(carts *Manager, cache *catalog.Cache) *Handler {
	return &Handler{carts: carts, catalog: cache}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Post("/items", h.addItem)
		r.Put("/items/{medicineId}", h.updateItem)
		r.Delete("/items/{medicineId}", h.removeItem)
		r.Delete("/", h.clearCart)
	})
}

// View is the cart as returned to clients.
type View struct {
	Lines []Line  `json:"lines"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

func viewOf(lines []Line) View {
	if lines == nil {
		lines = []Line{}
	}
	return View{Lines: lines, Total: Total(lines), Count: Count(lines)}
}

type itemRequest struct {
	MedicineID string `json:"medicineId"`
	Qty        int    `json:"qty"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, viewOf(h.carts.Lines(r.Context(), user.FromContext(r.Context()))))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	med, ok := h.catalog.Get(req.MedicineID)
	if !ok {
		respond(w, http.StatusNotFound, map[string]string{"error": "medicine not found"})
		return
	}
	lines, err := h.carts.Add(r.Context(), user.FromContext(r.Context()), med, req.Qty)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, viewOf(lines))
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	lines, err := h.carts.Update(r.Context(), user.FromContext(r.Context()), chi.URLParam(r, "medicineId"), req.Qty)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, viewOf(lines))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	lines, err := h.carts.Remove(r.Context(), user.FromContext(r.Context()), chi.URLParam(r, "medicineId"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, viewOf(lines))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), user.FromContext(r.Context())); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, viewOf(nil))
}

func respondError(w http.ResponseWriter, err error) {
	respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
