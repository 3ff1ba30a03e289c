package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct{ cache *Cache }

func NewHandler(cache *Cache) *Handler { return &Handler{cache: cache} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/medicines", h.listMedicines)
		r.Get("/medicines/{id}", h.getMedicine)
	})
}

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	q, searching := r.URL.Query()["q"]
	if !searching {
		respond(w, http.StatusOK, orEmpty(h.cache.All()))
		return
	}
	respond(w, http.StatusOK, orEmpty(h.cache.Search(q[0])))
}

func (h *Handler) getMedicine(w http.ResponseWriter, r *http.Request) {
	m, ok := h.cache.Get(chi.URLParam(r, "id"))
	if !ok {
		respond(w, http.StatusNotFound, map[string]string{"error": "medicine not found"})
		return
	}
	respond(w, http.StatusOK, m)
}

func orEmpty(meds []Medicine) []Medicine {
	if meds == nil {
		return []Medicine{}
	}
	return meds
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
