package catalog

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/georgemunganga/epharmacy-backend/internal/apperr"
	"github.com/georgemunganga/epharmacy-backend/internal/modules/store"
)

// MaxSearchResults caps the number of hits Search returns.
const MaxSearchResults = 10

// Option customizes a Cache.
type Option func(*Cache)

// WithLogger overrides the cache logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// Cache is a tab's in-memory view of the shared catalog. The store copy is
// authoritative; memory is refreshed by Save, Replace and Reload.
type Cache struct {
	st     *store.Store
	source Source
	logger *log.Logger

	mu        sync.RWMutex
	meds      []Medicine
	listeners []func([]Medicine)
}

// NewCache creates a cache over the shared store. source may be nil, in which case
// an empty store yields the fallback catalog.
func NewCache(st *store.Store, source Source, opts ...Option) *Cache {
	c := &Cache{st: st, source: source, logger: log.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange registers a listener called with the new catalog after every Save,
// Replace or Reload.
func (c *Cache) OnChange(fn func([]Medicine)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// EnsureLoaded fills memory from the store, or from the source when the store
// holds no catalog. A non-empty persisted catalog always wins over the source.
func (c *Cache) EnsureLoaded(ctx context.Context) error {
	if cached := c.read(ctx); len(cached) > 0 {
		c.Replace(cached)
		return nil
	}

	meds := c.fetch(ctx)
	return c.Save(ctx, meds)
}

func (c *Cache) fetch(ctx context.Context) []Medicine {
	if c.source == nil {
		return Fallback()
	}
	meds, err := c.source.Fetch(ctx)
	if err != nil {
		c.logger.Printf("catalog: source unavailable, using built-in fallback: %v", err)
		return Fallback()
	}
	return meds
}

func (c *Cache) read(ctx context.Context) []Medicine {
	return store.Get[[]Medicine](ctx, c.st, store.KeyCatalog, nil)
}

// All returns a copy of the catalog.
func (c *Cache) All() []Medicine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone(c.meds)
}

// Get returns the medicine with id from memory.
func (c *Cache) Get(id string) (Medicine, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.meds {
		if m.ID == id {
			return m, true
		}
	}
	return Medicine{}, false
}

// Search matches the query case-insensitively against each display name.
// An empty query yields nothing.
func (c *Cache) Search(q string) []Medicine {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var hits []Medicine
	for _, m := range c.meds {
		if strings.Contains(strings.ToLower(m.DisplayName()), q) {
			hits = append(hits, m)
			if len(hits) == MaxSearchResults {
				break
			}
		}
	}
	return hits
}

// Fresh re-reads the persisted catalog, bypassing memory. When nothing is
// persisted the in-memory copy is returned.
func (c *Cache) Fresh(ctx context.Context) []Medicine {
	if meds, ok := store.Lookup[[]Medicine](ctx, c.st, store.KeyCatalog); ok {
		return meds
	}
	return c.All()
}

// Save updates memory, persists the catalog and notifies listeners.
func (c *Cache) Save(ctx context.Context, meds []Medicine) error {
	meds = clone(meds)
	if meds == nil {
		meds = []Medicine{}
	}
	c.mu.Lock()
	c.meds = meds
	c.mu.Unlock()
	if err := c.st.Set(ctx, store.KeyCatalog, meds); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	c.notify(meds)
	return nil
}

// Replace swaps the in-memory catalog without writing and notifies listeners.
func (c *Cache) Replace(meds []Medicine) {
	meds = clone(meds)
	c.mu.Lock()
	c.meds = meds
	c.mu.Unlock()
	c.notify(meds)
}

// Reload replaces memory with whatever is persisted now.
func (c *Cache) Reload(ctx context.Context) {
	c.Replace(c.read(ctx))
}

func (c *Cache) notify(meds []Medicine) {
	c.mu.RLock()
	listeners := append([]func([]Medicine){}, c.listeners...)
	c.mu.RUnlock()
	for _, fn := range listeners {
		fn(clone(meds))
	}
}

// SetStock overwrites a medicine's stock and reports the persisted value it replaced.
func (c *Cache) SetStock(ctx context.Context, id string, stock int) (Medicine, int, error) {
	if stock < 0 {
		return Medicine{}, 0, fmt.Errorf("%w: stock must be zero or more", apperr.ErrValidation)
	}
	meds := c.Fresh(ctx)
	idx := indexOf(meds, id)
	if idx < 0 {
		return Medicine{}, 0, fmt.Errorf("%w: medicine %s", apperr.ErrNotFound, id)
	}
	previous := meds[idx].Stock
	meds[idx].Stock = stock
	if err := c.Save(ctx, meds); err != nil {
		return Medicine{}, 0, err
	}
	return meds[idx], previous, nil
}

// Add appends a new medicine; ids are unique.
func (c *Cache) Add(ctx context.Context, m Medicine) (Medicine, error) {
	m.ID = strings.TrimSpace(m.ID)
	m.Name = strings.TrimSpace(m.Name)
	if err := m.Validate(); err != nil {
		return Medicine{}, err
	}
	meds := c.Fresh(ctx)
	if indexOf(meds, m.ID) >= 0 {
		return Medicine{}, fmt.Errorf("%w: medicine %s already exists", apperr.ErrConflict, m.ID)
	}
	if err := c.Save(ctx, append(meds, m)); err != nil {
		return Medicine{}, err
	}
	return m, nil
}

// Delete removes a medicine. Orders keep their own item snapshots.
func (c *Cache) Delete(ctx context.Context, id string) error {
	meds := c.Fresh(ctx)
	idx := indexOf(meds, id)
	if idx < 0 {
		return fmt.Errorf("%w: medicine %s", apperr.ErrNotFound, id)
	}
	return c.Save(ctx, append(meds[:idx], meds[idx+1:]...))
}

func indexOf(meds []Medicine, id string) int {
	for i, m := range meds {
		if m.ID == id {
			return i
		}
	}
	return -1
}
