package changefeed

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

var (
	alice = user.Session{Name: "Alice", Email: "alice@example.com", Role: user.RoleCustomer}
	boss  = user.Session{Name: "Admin", Email: "admin@example.com", Role: user.RoleAdmin}
)

func feedURL(t *testing.T, bus *store.Bus, sess user.Session) string {
	t.Helper()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(user.WithSession(req.Context(), sess)))
		})
	})
	NewHandler(bus, log.New(io.Discard, "", 0)).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/changes"
}

func dial(t *testing.T, bus *store.Bus, sess user.Session, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(feedURL(t, bus, sess)+query, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readChange(t *testing.T, conn *websocket.Conn) store.Change {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var c store.Change
	if err := conn.ReadJSON(&c); err != nil {
		t.Fatalf("read: %v", err)
	}
	return c
}

// publishUntilRead keeps publishing until the server-side subscription is live
// and the first change arrives.
func publishUntilRead(t *testing.T, bus *store.Bus, conn *websocket.Conn, c store.Change) store.Change {
	t.Helper()
	got := make(chan store.Change, 1)
	go func() {
		var in store.Change
		if conn.ReadJSON(&in) == nil {
			got <- in
		}
	}()
	deadline := time.After(2 * time.Second)
	for {
		bus.Publish(context.Background(), c)
		select {
		case in := <-got:
			return in
		case <-deadline:
			t.Fatalf("no change received")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// readUntil reads frames until one carries key, failing on any frame rejected by bad.
func readUntil(t *testing.T, conn *websocket.Conn, key string, bad func(store.Change) bool) {
	t.Helper()
	for {
		c := readChange(t, conn)
		if bad(c) {
			t.Fatalf("received %+v", c)
		}
		if c.Key == key {
			return
		}
	}
}

func TestFeedStreamsChanges(t *testing.T) {
	bus := store.NewBus()
	conn := dial(t, bus, alice, "")

	first := publishUntilRead(t, bus, conn, store.Change{Key: store.KeyOrders, Origin: "tab-a"})
	if first.Key != store.KeyOrders || first.Origin != "tab-a" {
		t.Fatalf("change = %+v", first)
	}
}

func TestFeedSkipsOwnOrigin(t *testing.T) {
	bus := store.NewBus()
	conn := dial(t, bus, alice, "?except=tab-a")

	publishUntilRead(t, bus, conn, store.Change{Key: store.KeyCatalog, Origin: "tab-b"})
	bus.Publish(context.Background(), store.Change{Key: store.KeyOrders, Origin: "tab-a"})
	bus.Publish(context.Background(), store.Change{Key: store.KeySession, Origin: "tab-b"})
	readUntil(t, conn, store.KeySession, func(c store.Change) bool { return c.Origin == "tab-a" })
}

func TestFeedRejectsGuests(t *testing.T) {
	_, resp, err := websocket.DefaultDialer.Dial(feedURL(t, store.NewBus(), user.Session{}), nil)
	if err == nil {
		t.Fatalf("guest connected to the feed")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("response = %+v, want 401", resp)
	}
}

func TestFeedHidesOtherIdentitiesKeys(t *testing.T) {
	bus := store.NewBus()
	conn := dial(t, bus, alice, "")
	ctx := context.Background()

	publishUntilRead(t, bus, conn, store.Change{Key: store.KeyOrders, Origin: "tab-b"})
	bus.Publish(ctx, store.Change{Key: store.CartKey("bob@example.com"), Origin: "tab-b"})
	bus.Publish(ctx, store.Change{Key: store.AddressKey("bob@example.com"), Origin: "tab-b"})
	bus.Publish(ctx, store.Change{Key: store.CartKey(""), Origin: "tab-b"})
	bus.Publish(ctx, store.Change{Key: store.KeyUsers, Origin: "tab-b"})
	bus.Publish(ctx, store.Change{Key: store.CartKey(alice.Email), Origin: "tab-b"})

	readUntil(t, conn, store.CartKey(alice.Email), func(c store.Change) bool {
		return c.Key != store.KeyOrders && c.Key != store.CartKey(alice.Email)
	})
}

func TestVisible(t *testing.T) {
	bob := store.CartKey("bob@example.com")
	if Visible(alice, bob) || Visible(alice, store.KeyUsers) || Visible(alice, store.KeyActivity) {
		t.Fatalf("customer sees private keys")
	}
	if !Visible(alice, store.AddressKey("Alice@Example.com")) || !Visible(alice, store.KeyCatalog) {
		t.Fatalf("customer misses own or shared keys")
	}
	if !Visible(boss, bob) || !Visible(boss, store.KeyUsers) {
		t.Fatalf("admin misses keys")
	}
}
