package lifecycle

import (
	"context"
	"sync"
	"time"
)

// Ledger records processed event IDs so at-least-once webhook delivery
// becomes effectively-once processing.
type Ledger interface {
	// Seen reports whether the event was already processed.
	Seen(ctx context.Context, eventID string) (bool, error)
	// Record marks the event as processed.
	Record(ctx context.Context, eventID, eventType string) error
	// DeleteOlderThan prunes entries processed before the cutoff and
	// reports how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// InMemoryLedger keeps processed events in a map, for development and tests.
type InMemoryLedger struct {
	mu   sync.Mutex
	data map[string]time.Time
}

// NewInMemoryLedger constructs an empty ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{data: make(map[string]time.Time)}
}

// Seen reports whether the event was already processed.
func (l *InMemoryLedger) Seen(_ context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.data[eventID]
	return ok, nil
}

// Record marks the event as processed.
func (l *InMemoryLedger) Record(_ context.Context, eventID, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.data[eventID]; !ok {
		l.data[eventID] = time.Now()
	}
	return nil
}

// DeleteOlderThan prunes entries processed before the cutoff.
func (l *InMemoryLedger) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var deleted int64
	for id, at := range l.data {
		if at.Before(cutoff) {
			delete(l.data, id)
			deleted++
		}
	}
	return deleted, nil
}
