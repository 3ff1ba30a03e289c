package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

func newTestAuth(t *testing.T) (Service, user.Service, *store.Store) {
	t.Helper()
	st := store.New(store.NewMemoryBackend(), nil)
	users := user.NewServiceWithCost(user.NewStoreRepository(st), bcrypt.MinCost)
	_, err := users.Register(context.Background(), user.RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "secret1", Role: user.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return NewService(users, "test-secret", time.Hour), users, st
}

func TestIssueParseRoundTrip(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	want := user.Session{Name: "Alice", Email: "alice@example.com", Role: user.RoleAdmin}
	token, err := svc.Issue(want)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != want {
		t.Fatalf("session = %+v, want %+v", got, want)
	}
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	svc, users, _ := newTestAuth(t)
	sess := user.Session{Name: "Alice", Email: "alice@example.com", Role: user.RoleAdmin}

	other := NewService(users, "other-secret", time.Hour)
	foreign, err := other.Issue(sess)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Parse(foreign); err != ErrInvalidToken {
		t.Fatalf("foreign token err = %v", err)
	}

	stale := NewService(users, "test-secret", time.Minute).(*service)
	stale.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := stale.Issue(sess)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Parse(expired); err != ErrInvalidToken {
		t.Fatalf("expired token err = %v", err)
	}

	if _, err := svc.Issue(user.Session{}); err == nil {
		t.Fatalf("issued a token for the guest")
	}
}

func TestLoginDoesNotTouchPersistedSession(t *testing.T) {
	svc, _, st := newTestAuth(t)
	ctx := context.Background()
	if _, _, err := svc.Login(ctx, "alice@example.com", "nope-nope"); err == nil {
		t.Fatalf("login with bad password succeeded")
	}
	token, sess, err := svc.Login(ctx, "ALICE@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" || sess.Email != "alice@example.com" {
		t.Fatalf("login = %q, %+v", token, sess)
	}
	if _, ok := store.Lookup[user.Session](ctx, st, store.KeySession); ok {
		t.Fatalf("API login wrote the tab session")
	}
}

func TestMiddlewareAndLoginHandler(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	router := chi.NewRouter()
	router.Use(Middleware(svc))
	NewHandler(svc).RegisterRoutes(router)
	router.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(user.FromContext(r.Context()).Label()))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"alice@example.com","password":"wrong1"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"alice@example.com","password":"secret1"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	var body loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		header string
		code   int
		label  string
	}{
		{"", http.StatusOK, "Guest"},
		{"Bearer " + body.Token, http.StatusOK, "Alice"},
		{"Bearer garbage", http.StatusUnauthorized, ""},
		{"Basic abc", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tc.code {
			t.Fatalf("%q: status = %d, want %d", tc.header, rec.Code, tc.code)
		}
		if tc.code == http.StatusOK && rec.Body.String() != tc.label {
			t.Fatalf("%q: label = %q, want %q", tc.header, rec.Body.String(), tc.label)
		}
	}
}
