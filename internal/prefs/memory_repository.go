package prefs

import (
	"context"
	"sync"
)

// InMemoryRepository stores preferences in an in-process map, ideal for
// local development or tests.
type InMemoryRepository struct {
	mu   sync.Mutex
	data map[string]Preferences
}

// NewInMemoryRepository constructs an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{data: make(map[string]Preferences)}
}

// Get returns the preferences for a user.
func (r *InMemoryRepository) Get(_ context.Context, userID string) (Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefs, ok := r.data[userID]
	if !ok {
		return Preferences{}, ErrNotFound
	}
	return prefs, nil
}

// Upsert inserts or replaces the user's record under one lock, so two
// concurrent upserts can never both insert.
func (r *InMemoryRepository) Upsert(_ context.Context, prefs Preferences) (Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.data[prefs.UserID]; ok {
		prefs.CreatedAt = existing.CreatedAt
	}
	r.data[prefs.UserID] = prefs
	return prefs, nil
}

// CreateIfAbsent inserts the record only when the user has none.
func (r *InMemoryRepository) CreateIfAbsent(_ context.Context, prefs Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[prefs.UserID]; ok {
		return nil
	}
	r.data[prefs.UserID] = prefs
	return nil
}

// Delete removes the user's record. Deleting a missing record is not an
// error.
func (r *InMemoryRepository) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.data, userID)
	return nil
}
