package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a task cannot be located.
var ErrNotFound = errors.New("task not found")

// ErrValidation is returned when input validation fails.
var ErrValidation = errors.New("validation error")

// Task is a single to-do entry. OwnerID is the opaque identity issued by
// the identity provider; an empty owner marks ownerless sample data shown
// on the public demo route.
type Task struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OwnerID     string    `db:"owner_id" json:"ownerId,omitempty"`
	Text        string    `db:"text" json:"text"`
	IsCompleted bool      `db:"is_completed" json:"isCompleted"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Repository defines the interface for task persistence.
type Repository interface {
	Create(ctx context.Context, task Task) (Task, error)
	Get(ctx context.Context, id uuid.UUID) (Task, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Task, error)
	ListSample(ctx context.Context) ([]Task, error)
	Update(ctx context.Context, task Task) (Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}
