package workers

import (
	"context"
	"log/slog"
	"time"

	"fences-bot/runtime"
)

// SessionJanitor evicts dialogue sessions abandoned for longer than the
// configured TTL. Abandoned conversations never receive another event,
// so without the sweep their scratch state would live forever.
type SessionJanitor struct {
	sessions *runtime.Registry
	ttl      time.Duration
	log      *slog.Logger
}

func NewSessionJanitor(sessions *runtime.Registry, ttl time.Duration, log *slog.Logger) *SessionJanitor {
	return &SessionJanitor{sessions: sessions, ttl: ttl, log: log}
}

func (w *SessionJanitor) Run(ctx context.Context) error {
	if w.ttl <= 0 {
		w.log.Info("Session TTL disabled, janitor idle")
		return nil
	}

	w.log.Info("Starting session janitor", "ttl", w.ttl)
	ticker := time.NewTicker(w.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if evicted := w.sessions.SweepIdle(w.ttl); evicted > 0 {
				w.log.Info("Evicted idle sessions", "count", evicted, "remaining", w.sessions.Len())
			}
		}
	}
}
