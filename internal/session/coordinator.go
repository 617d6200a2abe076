package session

import (
	"context"
	"sync"
	"time"
)

const subscriberBuffer = 8

// Coordinator is the process-wide observable session projection. It
// starts in Loading and re-evaluates on explicit triggers only: Refresh
// (mount, focus regain, periodic poll) and SetToken (the storage-change
// analog when another tab swaps the credential).
//
// Subscribers receive every published snapshot on a buffered channel;
// slow consumers drop intermediate states rather than blocking the
// coordinator. A stale in-flight check never overwrites the result of a
// newer trigger.
type Coordinator struct {
	checker Checker
	timeout time.Duration

	mu          sync.Mutex
	token       string
	snapshot    Snapshot
	seq         uint64
	subscribers map[chan Snapshot]struct{}
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCheckTimeout overrides the per-check timeout.
func WithCheckTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithToken sets the initial session token.
func WithToken(token string) CoordinatorOption {
	return func(c *Coordinator) {
		c.token = token
	}
}

// NewCoordinator creates a coordinator in the Loading state. No check
// runs until the first Refresh.
func NewCoordinator(checker Checker, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		checker:     checker,
		timeout:     DefaultCheckTimeout,
		snapshot:    Snapshot{State: StateLoading},
		subscribers: make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current value of the projection.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// SetToken swaps the session credential and invalidates any in-flight
// check. The projection is not re-evaluated until the next Refresh.
func (c *Coordinator) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.seq++
}

// Refresh moves the projection to Loading, performs one session check,
// and publishes the outcome. If a newer trigger fires while the check is
// in flight the stale result is discarded. The returned snapshot is the
// check's own outcome either way.
func (c *Coordinator) Refresh(ctx context.Context) Snapshot {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	token := c.token
	c.snapshot = Snapshot{State: StateLoading, CheckedAt: time.Now()}
	c.publishLocked(c.snapshot)
	c.mu.Unlock()

	result := Resolve(ctx, c.checker, token, c.timeout)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq == c.seq {
		c.snapshot = result
		c.publishLocked(result)
	}
	return result
}

// Subscribe registers a listener. The current snapshot is delivered
// immediately; the cancel function must be called to release the
// subscription.
func (c *Coordinator) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, subscriberBuffer)

	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	ch <- c.snapshot
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// Wait blocks until the projection settles on a non-Loading state or the
// context is done. On context expiry it reports the last observed
// snapshot, which may still be Loading.
func (c *Coordinator) Wait(ctx context.Context) Snapshot {
	ch, cancel := c.Subscribe()
	defer cancel()

	last := c.Snapshot()
	for {
		if last.State != StateLoading {
			return last
		}
		select {
		case <-ctx.Done():
			return last
		case snap, ok := <-ch:
			if !ok {
				return last
			}
			last = snap
		}
	}
}

func (c *Coordinator) publishLocked(snap Snapshot) {
	for ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
			// Slow consumer; it will catch up on the next publish.
		}
	}
}
