package prefs

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no preferences record exists for a user.
var ErrNotFound = errors.New("preferences not found")

// ErrValidation is returned when input validation fails.
var ErrValidation = errors.New("validation error")

// Theme enumerates the supported UI themes.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Valid reports whether the theme is one of the supported values.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// Preferences is the single per-user settings record. UserID is the
// opaque identity issued by the identity provider; the primary key on it
// is what holds the one-record-per-user invariant.
type Preferences struct {
	UserID        string    `db:"user_id" json:"userId"`
	Theme         Theme     `db:"theme" json:"theme"`
	Notifications bool      `db:"notifications" json:"notifications"`
	Language      string    `db:"language" json:"language"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// Defaults returns the record written for a brand-new user.
func Defaults(userID string) Preferences {
	now := time.Now().UTC()
	return Preferences{
		UserID:        userID,
		Theme:         ThemeSystem,
		Notifications: true,
		Language:      "en",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Repository defines the interface for preferences persistence. Upsert
// and CreateIfAbsent must be atomic with respect to concurrent calls for
// the same user; lookup-then-write implementations are not acceptable.
type Repository interface {
	Get(ctx context.Context, userID string) (Preferences, error)
	Upsert(ctx context.Context, prefs Preferences) (Preferences, error)
	CreateIfAbsent(ctx context.Context, prefs Preferences) error
	Delete(ctx context.Context, userID string) error
}
