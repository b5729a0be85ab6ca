package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	partialCleanupInterval = 1 * time.Hour
	partialMaxAge          = 24 * time.Hour
)

// startPartialCleanup prunes partial download files at startup and then
// hourly until ctx is cancelled.
func (a *App) startPartialCleanup(ctx context.Context) {
	go func() {
		a.prunePartials("startup")

		ticker := time.NewTicker(partialCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.prunePartials("scheduled")
			}
		}
	}()
}

func (a *App) prunePartials(reason string) {
	n, err := a.downloads.PruneStale(partialMaxAge)
	if err != nil {
		log.Debug().Err(err).Msg("partial download prune skipped")
		return
	}

	if n > 0 {
		log.Info().
			Str("reason", reason).
			Int("removed", n).
			Msg("stale partial downloads removed")
	}
}
