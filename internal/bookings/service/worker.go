package service

import (
	"context"
	"time"

	apperrors "parkly/pkg/errors"
	"parkly/pkg/metrics"
)

// noShowBatchSize bounds how many expired bookings a single sweep pass
// loads. Anything left over is picked up by the next tick.
const noShowBatchSize = 100

// RunNoShowSweep periodically marks confirmed bookings whose window ended
// without a check-in. It blocks until ctx is cancelled; run it in its own
// goroutine.
func (s *bookingService) RunNoShowSweep(ctx context.Context) {
	interval := s.cfg.NoShowSweepInterval
	if interval <= 0 {
		s.cfg.Log.Warn("No-show sweep disabled", "interval", interval)
		return
	}

	s.cfg.Log.Info("No-show sweep started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cfg.Log.Info("No-show sweep stopped")
			return
		case <-ticker.C:
			s.sweepNoShows(ctx)
		}
	}
}

// sweepNoShows runs one pass. Each booking goes through MarkNoShow so the
// usual guards apply; a booking checked in or cancelled between the scan
// and the update is skipped, not failed.
func (s *bookingService) sweepNoShows(ctx context.Context) {
	expired, err := s.repo.FindExpiredConfirmed(ctx, time.Now().UTC(), noShowBatchSize)
	if err != nil {
		s.cfg.Log.Error("No-show scan failed", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	marked := 0
	for _, booking := range expired {
		if _, err := s.MarkNoShow(ctx, booking.ID); err != nil {
			if apperrors.HasCode(err, apperrors.CodeInvalidTransition) || apperrors.HasCode(err, apperrors.CodeConflict) {
				continue
			}
			s.cfg.Log.Warn("Failed to mark booking no-show", "id", booking.ID, "error", err)
			continue
		}
		marked++
	}

	if marked > 0 {
		metrics.IncNoShowsMarked(marked)
		s.cfg.Log.Info("No-show sweep completed", "marked", marked, "scanned", len(expired))
	}
}
