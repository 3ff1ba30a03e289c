package store

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

const defaultSubscriberCapacity = 64

// Change announces that a key was written or removed by the given origin.
// Subscribers re-read the key; the value itself is not carried.
type Change struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

// Relay forwards locally published changes to stores in other processes.
type Relay interface {
	Forward(ctx context.Context, busID string, c Change) error
}

// Subscription represents an active change subscription.
type Subscription struct {
	Changes <-chan Change
	cancel  func()
}

// Close terminates the subscription.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// BusOption customizes Bus construction.
type BusOption func(*Bus)

// WithSubscriberCapacity overrides the buffered channel size per subscriber.
func WithSubscriberCapacity(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// WithBusLogger injects a logger for drop and relay diagnostics.
func WithBusLogger(l *log.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// Bus fans store changes out to every open tab. Delivery is asynchronous and
// best-effort: a subscriber that falls behind loses its oldest pending change.
type Bus struct {
	id       string
	mu       sync.RWMutex
	subs     map[*subscriber]struct{}
	capacity int
	relay    Relay
	logger   *log.Logger
}

type subscriber struct {
	except string
	mu     sync.Mutex
	ch     chan Change
	closed bool
}

// NewBus constructs a bus with its own instance id.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		id:       uuid.NewString(),
		subs:     map[*subscriber]struct{}{},
		capacity: defaultSubscriberCapacity,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// ID identifies this bus instance to relays so echoes can be ignored.
func (b *Bus) ID() string { return b.id }

// SetRelay attaches a cross-process relay. Passing nil detaches it.
func (b *Bus) SetRelay(r Relay) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.relay = r
}

// Subscribe registers a subscriber that receives every change whose origin differs
// from except. An empty except receives all changes.
func (b *Bus) Subscribe(except string) Subscription {
	sub := &subscriber{except: except, ch: make(chan Change, b.capacity)}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return Subscription{
		Changes: sub.ch,
		cancel: func() {
			b.mu.Lock()
			delete(b.subs, sub)
			b.mu.Unlock()
			sub.close()
		},
	}
}

// Publish delivers a change to local subscribers and forwards it through the relay.
func (b *Bus) Publish(ctx context.Context, c Change) {
	b.Deliver(c)
	b.mu.RLock()
	relay := b.relay
	b.mu.RUnlock()
	if relay == nil {
		return
	}
	if err := relay.Forward(ctx, b.id, c); err != nil {
		b.logger.Printf("store: relay change %s: %v", c.Key, err)
	}
}

// Deliver hands a change to local subscribers only. Relays use it for remote changes.
func (b *Bus) Deliver(c Change) {
	b.mu.RLock()
	targets := make([]*subscriber, 0, len(b.subs))
	for sub := range b.subs {
		if sub.except != "" && sub.except == c.Origin {
			continue
		}
		targets = append(targets, sub)
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		if !sub.offer(c) {
			b.logger.Printf("store: subscriber overflow, dropped oldest change before %s", c.Key)
		}
	}
}

// offer enqueues without blocking. When the buffer is full the oldest change is
// discarded to make room and false is returned.
func (s *subscriber) offer(c Change) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- c:
		return true
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- c:
	default:
	}
	return false
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
