// Package changefeed streams store change notices to remote tabs over a websocket.
package changefeed

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// upgrader keeps the default same-origin check.
var upgrader = websocket.Upgrader{}

type Handler struct {
	bus    *store.Bus
	logger *log.Logger
}

func NewHandler(bus *store.Bus, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{bus: bus, logger: logger}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/api/v1/changes", h.serve)
}

// Visible reports whether sess may learn about a change to key. Admins see every
// key; customers and riders see the shared keys and their own cart and address.
func Visible(sess user.Session, key string) bool {
	if sess.IsAdmin() {
		return true
	}
	switch key {
	case store.KeyOrders, store.KeyCatalog, store.KeySession:
		return true
	}
	return key == store.CartKey(sess.Email) || key == store.AddressKey(sess.Email)
}

// serve upgrades the request and writes every change the caller may see as a JSON
// text frame until the client goes away. ?except=<origin> skips the caller's own writes.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	sess := user.FromContext(r.Context())
	if !sess.SignedIn() {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "please login first"})
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("changefeed: upgrade: %v", err)
		return
	}
	defer conn.Close()

	sub := h.bus.Subscribe(r.URL.Query().Get("except"))
	defer sub.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return
		case c, ok := <-sub.Changes:
			if !ok {
				return
			}
			if !Visible(sess, c.Key) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(c); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
