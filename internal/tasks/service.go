package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxTaskTextLength = 1000

// Service orchestrates validation and persistence for tasks. Every
// owner-facing operation is scoped by the caller's identity: acting on
// another owner's task surfaces as ErrNotFound, never as a different
// error that would confirm the task exists.
type Service struct {
	repo Repository
}

// NewService wires a Service with the provided repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the owner's tasks ordered by creation date descending.
// An empty owner gets an empty list, not an error.
func (s *Service) List(ctx context.Context, ownerID string) ([]Task, error) {
	if ownerID == "" {
		return []Task{}, nil
	}

	out, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, compareTasksByCreatedDesc)
	return out, nil
}

// ListSample returns the ownerless demo tasks shown on public routes.
func (s *Service) ListSample(ctx context.Context) ([]Task, error) {
	out, err := s.repo.ListSample(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, compareTasksByCreatedDesc)
	return out, nil
}

// Create validates and persists a new task for the owner.
func (s *Service) Create(ctx context.Context, ownerID, text string) (Task, error) {
	if ownerID == "" {
		return Task{}, fmt.Errorf("%w: owner is required", ErrValidation)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, fmt.Errorf("%w: text is required", ErrValidation)
	}
	if len(text) > maxTaskTextLength {
		return Task{}, fmt.Errorf("%w: text too long (max %d characters)", ErrValidation, maxTaskTextLength)
	}

	task := Task{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	return s.repo.Create(ctx, task)
}

// SetCompleted flips the completion flag on one of the owner's tasks.
func (s *Service) SetCompleted(ctx context.Context, ownerID string, id uuid.UUID, completed bool) (Task, error) {
	task, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return Task{}, err
	}

	task.IsCompleted = completed
	return s.repo.Update(ctx, task)
}

// Delete removes one of the owner's tasks.
func (s *Service) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, ownerID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// DeleteByOwner removes every task belonging to the owner. Used by the
// account-deletion cascade; deleting for an owner with no tasks is fine.
func (s *Service) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	return s.repo.DeleteByOwner(ctx, ownerID)
}

func (s *Service) getOwned(ctx context.Context, ownerID string, id uuid.UUID) (Task, error) {
	if ownerID == "" {
		return Task{}, ErrNotFound
	}

	task, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Task{}, ErrNotFound
		}
		return Task{}, fmt.Errorf("get task: %w", err)
	}
	if task.OwnerID != ownerID {
		return Task{}, ErrNotFound
	}
	return task, nil
}

func compareTasksByCreatedDesc(a, b Task) int {
	switch {
	case a.CreatedAt.After(b.CreatedAt):
		return -1
	case a.CreatedAt.Before(b.CreatedAt):
		return 1
	default:
		return 0
	}
}
