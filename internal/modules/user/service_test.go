package user

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
)

func newTestService(t *testing.T) (Service, *store.Store) {
	t.Helper()
	st := store.New(store.NewMemoryBackend(), nil)
	return NewServiceWithCost(NewStoreRepository(st), bcrypt.MinCost), st
}

func register(t *testing.T, svc Service, name, email string, role Role) *User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterRequest{Name: name, Email: email, Password: "secret1", Role: role})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bad := []RegisterRequest{
		{Name: "A", Email: "a@example.com", Password: "secret1"},
		{Name: "Alice", Email: "alice.example.com", Password: "secret1"},
		{Name: "Alice", Email: "alice@example.com", Password: "short"},
		{Name: "Alice", Email: "alice@example.com", Password: "secret1", Role: "pharmacist"},
	}
	for _, req := range bad {
		if _, err := svc.Register(ctx, req); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("Register(%+v) err = %v, want validation", req, err)
		}
	}
	if got := svc.Users(ctx); len(got) != 0 {
		t.Fatalf("invalid registrations were stored: %+v", got)
	}
}

func TestRegisterRejectsDuplicateEmailCaseInsensitively(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "Alice", "alice@example.com", "")
	_, err := svc.Register(context.Background(), RegisterRequest{Name: "Alice Two", Email: " ALICE@example.com", Password: "secret1"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate register err = %v, want conflict", err)
	}
}

func TestRegisterStoresHashAndDefaultRole(t *testing.T) {
	svc, _ := newTestService(t)
	u := register(t, svc, "Alice", "Alice@Example.com", "")
	if u.Email != "alice@example.com" {
		t.Fatalf("email = %q, want normalized", u.Email)
	}
	if u.Role != RoleCustomer {
		t.Fatalf("role = %q, want customer", u.Role)
	}
	if u.Password == "secret1" {
		t.Fatalf("password stored in clear text")
	}
}

func TestSignInPersistsSessionCopy(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	register(t, svc, "Alice", "alice@example.com", "")

	if _, err := svc.SignIn(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad password err = %v", err)
	}
	if svc.Current(ctx).SignedIn() {
		t.Fatalf("failed sign-in created a session")
	}

	sess, err := svc.SignIn(ctx, "ALICE@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	want := Session{Name: "Alice", Email: "alice@example.com", Role: RoleCustomer}
	if sess != want {
		t.Fatalf("session = %+v, want %+v", sess, want)
	}
	stored, ok := store.Lookup[Session](ctx, st, store.KeySession)
	if !ok || stored != want {
		t.Fatalf("persisted session = %+v (%v)", stored, ok)
	}

	if err := svc.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if svc.Current(ctx).SignedIn() {
		t.Fatalf("session survived sign-out")
	}
}

func TestRoleChangeRequiresExplicitResync(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "Rider", "rider@example.com", "")
	if _, err := svc.SignIn(ctx, "rider@example.com", "secret1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetRole(ctx, "rider@example.com", RoleDelivery); err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if got := svc.Current(ctx).Role; got != RoleCustomer {
		t.Fatalf("session role changed without resync: %s", got)
	}
	sess, err := svc.Resync(ctx)
	if err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if sess.Role != RoleDelivery || svc.Current(ctx).Role != RoleDelivery {
		t.Fatalf("resynced role = %s", sess.Role)
	}
	if got := svc.DeliveryUsers(ctx); len(got) != 1 || got[0].Email != "rider@example.com" {
		t.Fatalf("DeliveryUsers = %+v", got)
	}
}

func TestUserRoundTripsThroughStore(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "Alice", "alice@example.com", RoleAdmin)
	if _, err := svc.UpdateProfile(ctx, u.Email, "Alice Admin", "01700000000"); err != nil {
		t.Fatal(err)
	}
	got := store.Get[[]User](ctx, st, store.KeyUsers, nil)
	want := []User{{Name: "Alice Admin", Email: "alice@example.com", Password: u.Password, Role: RoleAdmin, Phone: "01700000000"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("registry = %+v, want %+v", got, want)
	}
}

func TestSessionLabel(t *testing.T) {
	if got := (Session{}).Label(); got != "Guest" {
		t.Fatalf("guest label = %q", got)
	}
	if got := (Session{Email: "a@example.com"}).Label(); got != "a@example.com" {
		t.Fatalf("email label = %q", got)
	}
	if got := (Session{Name: "Alice", Email: "a@example.com"}).Label(); got != "Alice" {
		t.Fatalf("name label = %q", got)
	}
}
