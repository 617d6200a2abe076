package lifecycle

import (
	"context"
	"fmt"
	"time"

	"log/slog"
)

// CleanupJob prunes old ledger entries. The provider stops retrying a
// delivery long before the retention window ends, so entries past it
// only cost storage. Designed to run as a daily batch; the deletion is
// idempotent.
type CleanupJob struct {
	ledger        Ledger
	logger        *slog.Logger
	RetentionDays int
}

// NewCleanupJob creates a job with the default 30-day retention.
func NewCleanupJob(ledger Ledger, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		ledger:        ledger,
		logger:        logger,
		RetentionDays: 30,
	}
}

// Run deletes ledger entries older than the retention window.
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := start.AddDate(0, 0, -j.RetentionDays)

	deleted, err := j.ledger.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("webhook ledger cleanup failed", "error", err, "retention_days", j.RetentionDays)
		return fmt.Errorf("ledger cleanup: %w", err)
	}

	j.logger.Info("webhook ledger cleanup finished",
		"deleted_count", deleted,
		"retention_days", j.RetentionDays,
		"duration", time.Since(start).String(),
	)
	return nil
}
