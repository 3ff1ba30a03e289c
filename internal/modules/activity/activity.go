// Package activity keeps the shared audit trail of order and catalog actions.
package activity

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

// MaxEntries is how many entries the log retains.
const MaxEntries = 50

// Action tags recorded by the storefront.
const (
	ActionCheckout       = "checkout"
	ActionOrderCancel    = "order.cancel"
	ActionOrderStatus    = "order.status"
	ActionOrderAssign    = "order.assign"
	ActionPaymentVerify  = "payment.verify"
	ActionStockUpdate    = "stock.update"
	ActionCatalogAdd     = "catalog.add"
	ActionCatalogDelete  = "catalog.delete"
	ActionCatalogImport  = "catalog.import"
	ActionRoleChange     = "user.role"
	ActionProfileUpdated = "user.profile"
)

// Entry is one audit line.
type Entry struct {
	ID      string    `json:"id"`
	Actor   string    `json:"actor"`
	Action  string    `json:"action"`
	Details string    `json:"details"`
	Time    time.Time `json:"time"`
}

// Log appends to the shared activity key. Failures never propagate to callers.
// A nil *Log records nothing.
type Log struct {
	st     *store.Store
	logger *log.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// New creates an activity log. A nil logger uses log.Default.
func New(st *store.Store, logger *log.Logger) *Log {
	if logger == nil {
		logger = log.Default()
	}
	return &Log{st: st, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Record prepends an entry attributed to who and trims the log to MaxEntries.
func (l *Log) Record(ctx context.Context, who user.Session, action, details string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := Entry{
		ID:      "LOG-" + uuid.NewString()[:8],
		Actor:   who.Label(),
		Action:  action,
		Details: details,
		Time:    l.now(),
	}
	entries := append([]Entry{entry}, l.Entries(ctx)...)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	if err := l.st.Set(ctx, store.KeyActivity, entries); err != nil {
		l.logger.Printf("activity: unable to record %s: %v", action, err)
	}
}

// Recordf is Record with a formatted details string.
func (l *Log) Recordf(ctx context.Context, who user.Session, action, format string, args ...any) {
	if l == nil {
		return
	}
	l.Record(ctx, who, action, fmt.Sprintf(format, args...))
}

// Entries returns the log, newest first.
func (l *Log) Entries(ctx context.Context) []Entry {
	if l == nil {
		return nil
	}
	return store.Get[[]Entry](ctx, l.st, store.KeyActivity, nil)
}
