package locker

import (
	"context"
	"sync"
	"time"
)

// Locker serializes event processing per conversation and deduplicates
// provider redeliveries by message sid.
type Locker interface {
	// Lock blocks until the caller owns the key and returns the unlock
	// function. Keys are (tenant, customer address) pairs, so two
	// near-simultaneous deliveries for one conversation cannot race on
	// its state.
	Lock(key string) func()

	// FirstDelivery reports whether this message sid has not been
	// processed before. It is a pure check: the sid only enters the
	// dedup set via MarkDelivered, so a delivery whose processing fails
	// stays eligible for the provider's retry. On infrastructure errors
	// it returns true: an occasional double-process beats dropping a
	// customer message.
	FirstDelivery(ctx context.Context, sid string) bool

	// MarkDelivered records the sid after a delivery was fully handled.
	MarkDelivered(ctx context.Context, sid string)

	Close() error
}

const dedupTTL = 24 * time.Hour

// MemoryLocker is the single-instance implementation.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	seen  map[string]time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]*sync.Mutex),
		seen:  make(map[string]time.Time),
	}
}

func (l *MemoryLocker) Lock(key string) func() {
	l.mu.Lock()
	m, exists := l.locks[key]
	if !exists {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (l *MemoryLocker) FirstDelivery(ctx context.Context, sid string) bool {
	if sid == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for id, at := range l.seen {
		if now.Sub(at) > dedupTTL {
			delete(l.seen, id)
		}
	}
	_, exists := l.seen[sid]
	return !exists
}

func (l *MemoryLocker) MarkDelivered(ctx context.Context, sid string) {
	if sid == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[sid] = time.Now()
}

func (l *MemoryLocker) Close() error {
	return nil
}
