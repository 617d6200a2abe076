package prefs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxLanguageLength = 35

// Service orchestrates validation and persistence for user preferences.
type Service struct {
	repo Repository
}

// NewService wires a Service with the provided repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the user's preferences, or nil when the insert-on-create
// hook has not run yet. Absence is not an error at this layer.
func (s *Service) Get(ctx context.Context, userID string) (*Preferences, error) {
	prefs, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return &prefs, nil
}

// UpdateInput carries a partial preferences patch. Nil fields keep their
// current (or default) values.
type UpdateInput struct {
	Theme         *Theme
	Notifications *bool
	Language      *string
}

// Update patches the user's record, inserting one with defaults for any
// unsupplied field when none exists yet.
func (s *Service) Update(ctx context.Context, userID string, input UpdateInput) (Preferences, error) {
	if userID == "" {
		return Preferences{}, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	current, err := s.repo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return Preferences{}, fmt.Errorf("get preferences: %w", err)
		}
		current = Defaults(userID)
	}

	if input.Theme != nil {
		if !input.Theme.Valid() {
			return Preferences{}, fmt.Errorf("%w: invalid theme %q", ErrValidation, *input.Theme)
		}
		current.Theme = *input.Theme
	}
	if input.Notifications != nil {
		current.Notifications = *input.Notifications
	}
	if input.Language != nil {
		language := strings.TrimSpace(*input.Language)
		if language == "" {
			return Preferences{}, fmt.Errorf("%w: language cannot be empty", ErrValidation)
		}
		if len(language) > maxLanguageLength {
			return Preferences{}, fmt.Errorf("%w: language too long (max %d characters)", ErrValidation, maxLanguageLength)
		}
		current.Language = language
	}

	current.UpdatedAt = time.Now().UTC()

	stored, err := s.repo.Upsert(ctx, current)
	if err != nil {
		return Preferences{}, fmt.Errorf("upsert preferences: %w", err)
	}
	return stored, nil
}

// EnsureDefaults writes the default record for a new user. Safe to call
// more than once; an existing record is left untouched.
func (s *Service) EnsureDefaults(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if err := s.repo.CreateIfAbsent(ctx, Defaults(userID)); err != nil {
		return fmt.Errorf("ensure default preferences: %w", err)
	}
	return nil
}

// Delete removes the user's record. Idempotent.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete preferences: %w", err)
	}
	return nil
}
