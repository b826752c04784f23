package app

import (
	"context"
	"time"

	"github.com/must-gpa/chartlet/internal/config"
)

// lookupCleanup prunes lookup history older than config.LookupRetention,
// once at startup and then every config.LookupCleanupInterval.
func (a *Application) lookupCleanup(ctx context.Context) {
	a.logger.Debug("Lookup cleanup job started")
	defer a.logger.Debug("Lookup cleanup job stopped")

	a.runLookupCleanup(ctx)

	ticker := time.NewTicker(config.LookupCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("Lookup cleanup received shutdown signal")
			return
		case <-ticker.C:
			a.runLookupCleanup(ctx)
		}
	}
}

func (a *Application) runLookupCleanup(ctx context.Context) int64 {
	start := time.Now()
	cutoff := start.Add(-config.LookupRetention)

	deleted, err := a.db.DeleteLookupsBefore(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			a.logger.WithError(err).Error("Failed to prune lookup history")
		}
		return 0
	}

	a.logger.WithField("deleted", deleted).
		WithField("cutoff", cutoff.UTC().Format(time.RFC3339)).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Lookup history pruned")
	return deleted
}
