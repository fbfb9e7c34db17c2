package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"fences-bot/services"
)

// One poll every 5 seconds; readers of the flag tolerate staleness of
// up to one interval after the true expiration instant.
const expirationPollInterval = 5 * time.Second

// ExpirationMonitor is the single writer of the shared expired flag.
// Each tick it compares the stored expiration timestamp against the
// wall clock: absent or future clears the flag, past sets it. The
// compose entry guard is the reader.
type ExpirationMonitor struct {
	svc     services.IDirectoryService
	expired *atomic.Bool
	log     *slog.Logger
	now     func() time.Time
}

func NewExpirationMonitor(svc services.IDirectoryService, expired *atomic.Bool, log *slog.Logger) *ExpirationMonitor {
	return &ExpirationMonitor{svc: svc, expired: expired, log: log, now: time.Now}
}

func (w *ExpirationMonitor) Run(ctx context.Context) error {
	w.log.Info("Starting expiration monitor", "interval", expirationPollInterval)
	w.Tick()

	ticker := time.NewTicker(expirationPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Tick()
		}
	}
}

// Tick performs one poll. Exposed so tests can observe a transition
// without waiting for the ticker.
func (w *ExpirationMonitor) Tick() {
	expired := w.svc.Load().Expired(w.now())
	was := w.expired.Swap(expired)
	if was != expired {
		w.log.Info("Expired state changed", "expired", expired)
	}
}
