package service

import (
	"context"
	"time"
)

// RunJanitor periodically removes expired sessions and refreshes the active sessions gauge.
// It returns when ctx is cancelled.
func (s *ConversationService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	s.log.InfoContext(ctx, "Session janitor started...", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "Session janitor stopped.")
			return
		case <-ticker.Chan():
			s.sweep(ctx)
		}
	}
}

func (s *ConversationService) sweep(ctx context.Context) {
	if s.ttl > 0 {
		removed, err := s.repo.DeleteExpiredSessions(ctx, s.clock.Now().Add(-s.ttl))
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to delete expired sessions", "error", err)
		} else if removed > 0 {
			s.log.InfoContext(ctx, "Expired sessions removed", "count", removed)
		}
	}

	count, err := s.repo.CountSessions(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to count sessions", "error", err)
		return
	}
	s.metrics.ActiveSessions.Set(float64(count))
}
