package cart

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/catalog"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

var (
	alice = user.Session{Name: "Alice", Email: "alice@example.com", Role: user.RoleCustomer}
	bob   = user.Session{Name: "Bob", Email: "bob@example.com", Role: user.RoleCustomer}

	paracetamol = catalog.Medicine{ID: "MED001", Name: "Paracetamol", Strength: "500mg", Form: "Tablet", Price: 10, Stock: 120}
	napa        = catalog.Medicine{ID: "MED002", Name: "Napa", Strength: "500mg", Form: "Tablet", Price: 6, Stock: 85}
)

func TestAddMergesByMedicine(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.New(store.NewMemoryBackend(), nil))
	if _, err := m.Add(ctx, alice, paracetamol, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Add(ctx, alice, napa, 1); err != nil {
		t.Fatal(err)
	}
	lines, err := m.Add(ctx, alice, paracetamol, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || lines[0].Qty != 5 {
		t.Fatalf("lines = %+v", lines)
	}
	if got := Total(lines); got != 56 {
		t.Fatalf("Total = %v, want 56", got)
	}
	if got := Count(lines); got != 6 {
		t.Fatalf("Count = %d, want 6", got)
	}
}

func TestTotalKeepsSubCentPrices(t *testing.T) {
	lines := []Line{{MedicineID: "MEDX", Price: 0.125, Qty: 1}, {MedicineID: "MEDY", Price: 1e17, Qty: 1}}
	if got, want := Total(lines), 0.125+1e17; got != want {
		t.Fatalf("Total = %v, want %v", got, want)
	}
	if got := Total(lines[:1]); got != 0.125 {
		t.Fatalf("Total = %v, want 0.125", got)
	}
}

func TestAddRejections(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.New(store.NewMemoryBackend(), nil))
	if _, err := m.Add(ctx, user.Session{}, paracetamol, 1); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("guest add err = %v", err)
	}
	if _, err := m.Add(ctx, alice, paracetamol, 0); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("zero qty err = %v", err)
	}
	soldOut := paracetamol
	soldOut.Stock = 0
	if _, err := m.Add(ctx, alice, soldOut, 1); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("out of stock err = %v", err)
	}
	if got := m.Lines(ctx, alice); len(got) != 0 {
		t.Fatalf("rejected adds mutated cart: %+v", got)
	}
}

func TestCartsArePartitionedByIdentity(t *testing.T) {
	ctx := context.Background()
	st := store.New(store.NewMemoryBackend(), nil)
	m := NewManager(st)
	if _, err := m.Add(ctx, alice, paracetamol, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Add(ctx, bob, napa, 4); err != nil {
		t.Fatal(err)
	}
	if got := m.Lines(ctx, alice); len(got) != 1 || got[0].MedicineID != "MED001" {
		t.Fatalf("alice cart = %+v", got)
	}
	if got := m.Lines(ctx, bob); len(got) != 1 || got[0].Qty != 4 {
		t.Fatalf("bob cart = %+v", got)
	}
	if got := m.Lines(ctx, user.Session{}); len(got) != 0 {
		t.Fatalf("guest cart = %+v", got)
	}
	if got := store.Get[[]Line](ctx, st, "ep_cart_alice@example.com", nil); len(got) != 1 {
		t.Fatalf("persisted alice cart = %+v", got)
	}
}

func TestUpdateRemoveClear(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.New(store.NewMemoryBackend(), nil))
	m.Add(ctx, alice, paracetamol, 1)
	m.Add(ctx, alice, napa, 1)

	if _, err := m.Update(ctx, alice, "MED002", 0); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("update to 0 err = %v", err)
	}
	if _, err := m.Update(ctx, alice, "MED999", 2); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("update missing err = %v", err)
	}
	lines, err := m.Update(ctx, alice, "MED002", 3)
	if err != nil || lines[1].Qty != 3 {
		t.Fatalf("Update = %+v, %v", lines, err)
	}
	lines, err = m.Remove(ctx, alice, "MED001")
	if err != nil || len(lines) != 1 || lines[0].MedicineID != "MED002" {
		t.Fatalf("Remove = %+v, %v", lines, err)
	}
	if err := m.Clear(ctx, alice); err != nil {
		t.Fatal(err)
	}
	if got := m.Lines(ctx, alice); len(got) != 0 {
		t.Fatalf("cleared cart = %+v", got)
	}
}

func TestSnapshotSurvivesCatalogChange(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.New(store.NewMemoryBackend(), nil))
	m.Add(ctx, alice, paracetamol, 1)
	repriced := paracetamol
	repriced.Price = 99
	lines, _ := m.Add(ctx, alice, repriced, 1)
	if lines[0].Price != 10 {
		t.Fatalf("price = %v, want snapshot 10", lines[0].Price)
	}
}

func TestHandlerAddItem(t *testing.T) {
	st := store.New(store.NewMemoryBackend(), nil)
	cache := catalog.NewCache(st, nil)
	if err := cache.EnsureLoaded(context.Background()); err != nil {
		t.Fatal(err)
	}
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(user.WithSession(r.Context(), alice)))
		})
	})
	NewHandler(NewManager(st), cache).RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"medicineId":"MED002","qty":2}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"count":2`) || !strings.Contains(rec.Body.String(), `"total":12`) {
		t.Fatalf("body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"medicineId":"NOPE","qty":1}`)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown medicine status = %d", rec.Code)
	}
}
