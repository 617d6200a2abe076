package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresRepository persists preferences to a Postgres database. The
// primary key on user_id plus ON CONFLICT clauses make both write paths
// atomic, closing the double-insert race a lookup-then-write pattern has.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository constructs a repository backed by sqlx.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get retrieves the record for a user.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (Preferences, error) {
	var prefs Preferences
	query := `SELECT user_id, theme, notifications, language, created_at, updated_at
FROM user_preferences WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &prefs, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Preferences{}, ErrNotFound
		}
		return Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	return prefs, nil
}

// Upsert inserts or updates the user's record in one statement.
func (r *PostgresRepository) Upsert(ctx context.Context, prefs Preferences) (Preferences, error) {
	query := `INSERT INTO user_preferences (user_id, theme, notifications, language, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE SET
    theme = EXCLUDED.theme,
    notifications = EXCLUDED.notifications,
    language = EXCLUDED.language,
    updated_at = EXCLUDED.updated_at
RETURNING user_id, theme, notifications, language, created_at, updated_at`

	var stored Preferences
	if err := r.db.GetContext(ctx, &stored, query,
		prefs.UserID, prefs.Theme, prefs.Notifications, prefs.Language, prefs.CreatedAt, prefs.UpdatedAt,
	); err != nil {
		return Preferences{}, fmt.Errorf("upsert preferences: %w", err)
	}
	return stored, nil
}

// CreateIfAbsent inserts the record only when the user has none.
func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, prefs Preferences) error {
	query := `INSERT INTO user_preferences (user_id, theme, notifications, language, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query,
		prefs.UserID, prefs.Theme, prefs.Notifications, prefs.Language, prefs.CreatedAt, prefs.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create preferences: %w", err)
	}
	return nil
}

// Delete removes the user's record. Deleting a missing record is not an
// error.
func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_preferences WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete preferences: %w", err)
	}
	return nil
}
