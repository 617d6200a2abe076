package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresLedger persists processed events to Postgres. The primary key
// on event_id makes Record atomic under concurrent redeliveries.
type PostgresLedger struct {
	db *sqlx.DB
}

// NewPostgresLedger constructs a ledger backed by sqlx.
func NewPostgresLedger(db *sqlx.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Seen reports whether the event was already processed.
func (l *PostgresLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	var seen bool
	query := `SELECT EXISTS (SELECT 1 FROM webhook_events WHERE event_id = $1)`
	if err := l.db.GetContext(ctx, &seen, query, eventID); err != nil {
		return false, fmt.Errorf("check webhook event: %w", err)
	}
	return seen, nil
}

// Record marks the event as processed.
func (l *PostgresLedger) Record(ctx context.Context, eventID, eventType string) error {
	query := `INSERT INTO webhook_events (event_id, event_type, processed_at)
VALUES ($1, $2, now())
ON CONFLICT (event_id) DO NOTHING`
	if _, err := l.db.ExecContext(ctx, query, eventID, eventType); err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}
	return nil
}

// DeleteOlderThan prunes entries processed before the cutoff.
func (l *PostgresLedger) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := l.db.ExecContext(ctx, `DELETE FROM webhook_events WHERE processed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune webhook events: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune webhook events: %w", err)
	}
	return deleted, nil
}
