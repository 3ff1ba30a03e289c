// Package store is the JSON key/value persistence layer shared by every open tab.
// Writes persist immediately and are announced on a Bus; there are no transactions
// and no cross-key atomicity, so a multi-key operation is observed incrementally.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// Backend persists raw values. Implementations must be safe for concurrent use.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Option customizes a Store during construction.
type Option func(*Store)

// WithOrigin fixes the origin id instead of generating one.
func WithOrigin(origin string) Option {
	return func(s *Store) {
		if origin != "" {
			s.origin = origin
		}
	}
}

// WithLogger overrides the logger used for swallowed read failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store is one tab's handle on the shared backend. Its origin tags every change it
// publishes so the tab does not react to its own writes.
type Store struct {
	backend Backend
	bus     *Bus
	origin  string
	logger  *log.Logger
}

// New builds a store handle. A nil bus gets a private one.
func New(backend Backend, bus *Bus, opts ...Option) *Store {
	if bus == nil {
		bus = NewBus()
	}
	s := &Store{
		backend: backend,
		bus:     bus,
		origin:  uuid.NewString(),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Origin returns the id stamped on changes written through this handle.
func (s *Store) Origin() string { return s.origin }

// Bus returns the bus this handle publishes to.
func (s *Store) Bus() *Bus { return s.bus }

// Set serializes value and persists it under key, then announces the change.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	if err := s.backend.Put(ctx, key, data); err != nil {
		return fmt.Errorf("store: put %s: %w", key, err)
	}
	s.bus.Publish(ctx, Change{Key: key, Origin: s.origin})
	return nil
}

// Remove deletes key and announces the change.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	s.bus.Publish(ctx, Change{Key: key, Origin: s.origin})
	return nil
}

// Subscribe returns changes written by every other origin on the same bus.
func (s *Store) Subscribe() Subscription {
	return s.bus.Subscribe(s.origin)
}

// Lookup decodes the value stored under key. Missing, unreadable, null and
// unparsable values all report false; read and decode failures are only logged.
func Lookup[T any](ctx context.Context, s *Store, key string) (T, bool) {
	var zero T
	data, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Printf("store: read %s: %v", key, err)
		return zero, false
	}
	if !ok {
		return zero, false
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return zero, false
	}
	var out T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		s.logger.Printf("store: discarding unparsable %s: %v", key, err)
		return zero, false
	}
	return out, true
}

// Get is Lookup with a caller-supplied fallback.
func Get[T any](ctx context.Context, s *Store, key string, fallback T) T {
	if v, ok := Lookup[T](ctx, s, key); ok {
		return v
	}
	return fallback
}
