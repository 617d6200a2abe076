package tasks

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRepository stores tasks in an in-process map, ideal for local
// development or tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	data  map[uuid.UUID]Task
	order []uuid.UUID
}

// NewInMemoryRepository constructs a repository seeded with optional initial tasks.
func NewInMemoryRepository(initial []Task) *InMemoryRepository {
	data := make(map[uuid.UUID]Task)
	order := make([]uuid.UUID, 0, len(initial))
	for _, task := range initial {
		data[task.ID] = task
		order = append(order, task.ID)
	}
	return &InMemoryRepository{data: data, order: order}
}

// Create stores a new task.
func (r *InMemoryRepository) Create(_ context.Context, task Task) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[task.ID] = task
	r.order = append(r.order, task.ID)
	return task, nil
}

// Get returns a task by ID.
func (r *InMemoryRepository) Get(_ context.Context, id uuid.UUID) (Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.data[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return task, nil
}

// ListByOwner returns all tasks belonging to the given owner.
func (r *InMemoryRepository) ListByOwner(_ context.Context, ownerID string) ([]Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Task, 0)
	for _, id := range r.order {
		if task, ok := r.data[id]; ok && task.OwnerID == ownerID && ownerID != "" {
			out = append(out, task)
		}
	}
	return out, nil
}

// ListSample returns the ownerless demo tasks.
func (r *InMemoryRepository) ListSample(_ context.Context) ([]Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Task, 0)
	for _, id := range r.order {
		if task, ok := r.data[id]; ok && task.OwnerID == "" {
			out = append(out, task)
		}
	}
	return out, nil
}

// Update replaces an existing task.
func (r *InMemoryRepository) Update(_ context.Context, task Task) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[task.ID]; !ok {
		return Task{}, ErrNotFound
	}
	r.data[task.ID] = task
	return task, nil
}

// Delete removes a task by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// DeleteByOwner removes every task belonging to the given owner and
// reports how many were removed.
func (r *InMemoryRepository) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	if ownerID == "" {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	kept := r.order[:0]
	for _, id := range r.order {
		task, ok := r.data[id]
		if ok && task.OwnerID == ownerID {
			delete(r.data, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return deleted, nil
}
