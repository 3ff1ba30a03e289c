package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// NotifyChannel is the Postgres channel store changes are broadcast on.
const NotifyChannel = "epharmacy_store"

type relayPayload struct {
	Bus    string `json:"bus"`
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

// PGRelay pushes changes between processes sharing one Postgres-backed store using
// LISTEN/NOTIFY. Each process attaches it to its local Bus.
type PGRelay struct {
	db     *sqlx.DB
	dsn    string
	bus    *Bus
	logger *log.Logger
}

// NewPGRelay builds a relay for bus. dsn is used for the dedicated listener connection.
func NewPGRelay(db *sqlx.DB, dsn string, bus *Bus, logger *log.Logger) *PGRelay {
	if logger == nil {
		logger = log.Default()
	}
	return &PGRelay{db: db, dsn: dsn, bus: bus, logger: logger}
}

// Forward implements Relay.
func (r *PGRelay) Forward(ctx context.Context, busID string, c Change) error {
	payload, err := json.Marshal(relayPayload{Bus: busID, Key: c.Key, Origin: c.Origin})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, string(payload))
	return err
}

// Listen blocks, injecting remote changes into the local bus until ctx ends.
func (r *PGRelay) Listen(ctx context.Context) error {
	listener := pq.NewListener(r.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			r.logger.Printf("store: listener event %d: %v", ev, err)
		}
	})
	defer listener.Close()
	if err := listener.Listen(NotifyChannel); err != nil {
		return fmt.Errorf("store: listen %s: %w", NotifyChannel, err)
	}

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect; changes may have been missed.
			if n == nil {
				continue
			}
			r.handle(n.Extra)
		case <-ping.C:
			go func() {
				if err := listener.Ping(); err != nil {
					r.logger.Printf("store: listener ping: %v", err)
				}
			}()
		}
	}
}

func (r *PGRelay) handle(extra string) {
	var p relayPayload
	if err := json.Unmarshal([]byte(extra), &p); err != nil {
		r.logger.Printf("store: ignoring malformed notification: %v", err)
		return
	}
	if p.Bus == r.bus.ID() || p.Key == "" {
		return
	}
	r.bus.Deliver(Change{Key: p.Key, Origin: p.Origin})
}
