package activity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

func TestRecordPrependsAndTruncates(t *testing.T) {
	ctx := context.Background()
	l := New(store.New(store.NewMemoryBackend(), nil), log.New(io.Discard, "", 0))
	admin := user.Session{Name: "Admin", Email: "admin@example.com", Role: user.RoleAdmin}
	for i := 0; i < MaxEntries+5; i++ {
		l.Recordf(ctx, admin, ActionStockUpdate, "entry %d", i)
	}
	entries := l.Entries(ctx)
	if len(entries) != MaxEntries {
		t.Fatalf("len = %d, want %d", len(entries), MaxEntries)
	}
	if entries[0].Details != fmt.Sprintf("entry %d", MaxEntries+4) {
		t.Fatalf("newest = %q", entries[0].Details)
	}
	if entries[MaxEntries-1].Details != "entry 5" {
		t.Fatalf("oldest kept = %q", entries[MaxEntries-1].Details)
	}
	if entries[0].Actor != "Admin" || entries[0].ID == "" || entries[0].Time.IsZero() {
		t.Fatalf("entry = %+v", entries[0])
	}
}

func TestActorLabels(t *testing.T) {
	ctx := context.Background()
	l := New(store.New(store.NewMemoryBackend(), nil), nil)
	l.Record(ctx, user.Session{}, ActionCheckout, "")
	l.Record(ctx, user.Session{Email: "rider@example.com"}, ActionOrderStatus, "")
	entries := l.Entries(ctx)
	if entries[0].Actor != "rider@example.com" || entries[1].Actor != "Guest" {
		t.Fatalf("actors = %q, %q", entries[0].Actor, entries[1].Actor)
	}
}

type failingBackend struct{ *store.MemoryBackend }

func (failingBackend) Put(context.Context, string, []byte) error { return errors.New("disk full") }

func TestRecordSwallowsStorageFailure(t *testing.T) {
	var buf strings.Builder
	l := New(store.New(failingBackend{store.NewMemoryBackend()}, nil), log.New(&buf, "", 0))
	l.Record(context.Background(), user.Session{}, ActionCheckout, "ORD-1")
	if !strings.Contains(buf.String(), "disk full") {
		t.Fatalf("failure not logged: %q", buf.String())
	}
}

func TestNilLogIsInert(t *testing.T) {
	var l *Log
	ctx := context.Background()
	l.Record(ctx, user.Session{}, ActionCheckout, "ORD-1")
	l.Recordf(ctx, user.Session{}, ActionCheckout, "%s", "ORD-1")
	if got := l.Entries(ctx); got != nil {
		t.Fatalf("Entries = %+v, want nil", got)
	}
}
