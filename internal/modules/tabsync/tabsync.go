// Package tabsync keeps one tab's views in step with writes made by other tabs.
package tabsync

import (
	"context"
	"log"
	"sync"

	"github.com/georgemunganga/epharmacy-backend/internal/modules/cart"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/catalog"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

// Renderer is the tab's presentation layer.
type Renderer interface {
	RenderAuth(sess user.Session)
	RedirectToLogin()
	RenderOrders()
	RenderCart(lines []cart.Line, count int)
	RenderListings(meds []catalog.Medicine)
}

// Option customizes a Syncer.
type Option func(*Syncer)

// WithLogger overrides the syncer logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

// Syncer reacts to changes published by other tabs on the same bus.
type Syncer struct {
	st      *store.Store
	users   user.Service
	carts   *cart.Manager
	catalog *catalog.Cache
	view    Renderer
	logger  *log.Logger

	mu        sync.Mutex
	primed    bool
	identity  string
	protected bool
}

// New creates a syncer and routes catalog changes to the renderer's listings.
func New(st *store.Store, users user.Service, carts *cart.Manager, meds *catalog.Cache, view Renderer, opts ...Option) *Syncer {
	s := &Syncer{st: st, users: users, carts: carts, catalog: meds, view: view, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	meds.OnChange(view.RenderListings)
	return s
}

// SetProtectedView records whether the tab shows a view that needs a session.
func (s *Syncer) SetProtectedView(protected bool) {
	s.mu.Lock()
	s.protected = protected
	s.mu.Unlock()
}

// Run dispatches changes until ctx ends.
func (s *Syncer) Run(ctx context.Context) error {
	sub := s.subscribe(ctx)
	defer sub.Close()
	return s.loop(ctx, sub)
}

// Start subscribes before returning and dispatches in the background. The
// returned channel closes once ctx ends and the subscription is released.
func (s *Syncer) Start(ctx context.Context) <-chan struct{} {
	sub := s.subscribe(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer sub.Close()
		s.loop(ctx, sub)
	}()
	return done
}

func (s *Syncer) subscribe(ctx context.Context) store.Subscription {
	sub := s.st.Subscribe()
	s.mu.Lock()
	s.prime(ctx)
	s.mu.Unlock()
	return sub
}

func (s *Syncer) loop(ctx context.Context, sub store.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-sub.Changes:
			if !ok {
				return nil
			}
			s.Handle(ctx, c)
		}
	}
}

func (s *Syncer) prime(ctx context.Context) {
	if s.primed {
		return
	}
	s.identity = store.NormalizeEmail(s.users.Current(ctx).Email)
	s.primed = true
}

// Handle applies one change to the tab's views.
func (s *Syncer) Handle(ctx context.Context, c store.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch c.Key {
	case store.KeySession:
		s.sessionChanged(ctx)
	case store.KeyOrders:
		s.view.RenderOrders()
	case store.KeyCatalog:
		s.catalog.Reload(ctx)
	default:
		owner, ok := store.CartOwner(c.Key)
		if !ok {
			return
		}
		s.prime(ctx)
		if owner == s.identity {
			s.renderCart(ctx)
		}
	}
}

func (s *Syncer) sessionChanged(ctx context.Context) {
	wasPrimed, previous := s.primed, s.identity
	sess := s.users.Current(ctx)
	s.identity = store.NormalizeEmail(sess.Email)
	s.primed = true

	s.view.RenderAuth(sess)
	if !sess.SignedIn() && s.protected {
		s.logger.Printf("tabsync: session ended elsewhere, redirecting to login")
		s.view.RedirectToLogin()
	}
	if !wasPrimed || previous != s.identity {
		s.renderCart(ctx)
	}
}

func (s *Syncer) renderCart(ctx context.Context) {
	lines := s.carts.Lines(ctx, s.users.Current(ctx))
	s.view.RenderCart(lines, cart.Count(lines))
}

// Discard is a Renderer for headless tabs such as the API process, where only the
// catalog reload matters.
var Discard Renderer = discard{}

type discard struct{}

func (discard) RenderAuth(user.Session) {}
func (discard) RedirectToLogin() {}
func (discard) RenderOrders() {}
func (discard) RenderCart([]cart.Line, int) {}
func (discard) RenderListings([]catalog.Medicine) {}
