package ingestion

import (
	"context"
	"time"

	"github.com/guttosm/econpulse/internal/logger"
)

// Schedule calls run immediately and then once per interval until ctx is
// cancelled. Runs never overlap: a tick that fires while run is still busy
// is dropped by the ticker.
//
// Returns nil when ctx is cancelled.
func Schedule(ctx context.Context, interval time.Duration, run func(context.Context)) error {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	logger.L().Info().Dur("interval", interval).Msg("scheduler started")

	run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.L().Info().Msg("scheduler stopped")
			return nil
		case <-ticker.C:
			run(ctx)
		}
	}
}
