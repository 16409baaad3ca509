package service

import (
	"context"
	"time"

	"market-assist-be/internal/pkg/logger"
)

// SessionReaper periodically closes sessions idle past the staleness
// threshold. One instance runs per process.
type SessionReaper struct {
	sessions  ISessionService
	interval  time.Duration
	olderThan time.Duration
	logger    logger.ILogger
}

func NewSessionReaper(sessions ISessionService, interval, olderThan time.Duration, log logger.ILogger) *SessionReaper {
	return &SessionReaper{
		sessions:  sessions,
		interval:  interval,
		olderThan: olderThan,
		logger:    log,
	}
}

// Run blocks until the context is cancelled. Start it with `go reaper.Run(ctx)`.
func (r *SessionReaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := r.sessions.ReapStale(ctx, r.olderThan)
			if err != nil {
				r.logger.Error("Reaper", "Failed to reap stale sessions", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			if count > 0 {
				r.logger.Info("Reaper", "Closed stale sessions", map[string]interface{}{
					"count": count,
				})
			}
		}
	}
}
