package lifecycle

import (
	"context"
	"fmt"

	"log/slog"

	"foyer/internal/prefs"
	"foyer/internal/tasks"
)

// Processor applies lifecycle events to first-party records: new users
// get default preferences, deleted users get their preferences and tasks
// removed. The provider retries deliveries, so everything here is
// idempotent and events are recorded in the ledger only after the side
// effects succeed.
type Processor struct {
	prefs  *prefs.Service
	tasks  *tasks.Service
	ledger Ledger
	logger *slog.Logger
}

// NewProcessor wires a Processor.
func NewProcessor(prefsSvc *prefs.Service, tasksSvc *tasks.Service, ledger Ledger, logger *slog.Logger) *Processor {
	return &Processor{prefs: prefsSvc, tasks: tasksSvc, ledger: ledger, logger: logger}
}

// Process applies one event. Duplicate deliveries and unknown event
// types are acknowledged without side effects.
func (p *Processor) Process(ctx context.Context, event Event) error {
	seen, err := p.ledger.Seen(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("lifecycle: check ledger: %w", err)
	}
	if seen {
		p.logger.Info("duplicate lifecycle event skipped", "event_id", event.ID, "type", event.Type)
		return nil
	}

	switch event.Type {
	case EventUserCreated:
		if err := p.prefs.EnsureDefaults(ctx, event.Data.ID); err != nil {
			return fmt.Errorf("lifecycle: create default preferences: %w", err)
		}
		p.logger.Info("default preferences created", "user_id", event.Data.ID)

	case EventUserDeleted:
		if err := p.prefs.Delete(ctx, event.Data.ID); err != nil {
			return fmt.Errorf("lifecycle: delete preferences: %w", err)
		}
		deleted, err := p.tasks.DeleteByOwner(ctx, event.Data.ID)
		if err != nil {
			return fmt.Errorf("lifecycle: cascade tasks: %w", err)
		}
		p.logger.Info("user records removed", "user_id", event.Data.ID, "tasks_deleted", deleted)

	default:
		// Unknown types are acknowledged so the provider stops retrying
		// them, but they are still ledgered below.
		p.logger.Warn("unknown lifecycle event type", "event_id", event.ID, "type", event.Type)
	}

	if err := p.ledger.Record(ctx, event.ID, event.Type); err != nil {
		return fmt.Errorf("lifecycle: record event: %w", err)
	}
	return nil
}
