package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/studyplan-backend/internal/repository"
)

// SessionJanitor periodically drops expired sessions from stores that do
// not expire entries on their own.
type SessionJanitor struct {
	store    repository.Purger
	interval time.Duration
	log      zerolog.Logger
}

// NewSessionJanitor creates a new SessionJanitor.
func NewSessionJanitor(store repository.Purger, interval time.Duration, log zerolog.Logger) *SessionJanitor {
	return &SessionJanitor{
		store:    store,
		interval: interval,
		log:      log.With().Str("component", "session_janitor").Logger(),
	}
}

// Start runs the sweep loop until ctx is cancelled. Call in a goroutine.
func (w *SessionJanitor) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SessionJanitor) sweep(ctx context.Context) int {
	removed, err := w.store.Purge(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("Purge error")
		return 0
	}
	if removed > 0 {
		w.log.Debug().Int("removed", removed).Msg("Expired sessions purged")
	}
	return removed
}
