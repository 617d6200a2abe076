package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// TokenKey derives the hub registration key for a session token. Raw
// tokens never leave the request path.
func TokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Hub tracks the live coordinators of each session so that a sign-out in
// one tab can push Unauthenticated to every other tab of that session.
type Hub struct {
	mu           sync.RWMutex
	coordinators map[string]map[*Coordinator]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{coordinators: make(map[string]map[*Coordinator]struct{})}
}

// Register adds a coordinator under the given token key.
func (h *Hub) Register(key string, c *Coordinator) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.coordinators[key] == nil {
		h.coordinators[key] = make(map[*Coordinator]struct{})
	}
	h.coordinators[key][c] = struct{}{}
}

// Unregister removes a coordinator.
func (h *Hub) Unregister(key string, c *Coordinator) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.coordinators[key]
	if set == nil {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.coordinators, key)
	}
}

// Len reports the number of live coordinators across all sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, set := range h.coordinators {
		total += len(set)
	}
	return total
}

// Invalidate re-evaluates every coordinator registered under the key.
// After a sign-out the provider reports no session for the token, so the
// refresh settles each of them on Unauthenticated.
func (h *Hub) Invalidate(ctx context.Context, key string) {
	h.mu.RLock()
	set := h.coordinators[key]
	targets := make([]*Coordinator, 0, len(set))
	for c := range set {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.Refresh(ctx)
	}
}
