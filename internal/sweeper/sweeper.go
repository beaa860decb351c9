package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type Syncer interface {
	SyncEventStatuses(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper refreshes stored event statuses on an interval. Reads never depend
// on it; it only keeps the indexed column close to the derived value.
type Sweeper struct {
	store    Syncer
	interval time.Duration
	log      *zerolog.Logger
	now      func() time.Time
}

func New(store Syncer, interval time.Duration, log *zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{store: store, interval: interval, log: log, now: time.Now}
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.store.SyncEventStatuses(ctx, s.now().UTC())
	if err != nil {
		s.log.Error().Err(err).Msg("event status sweep failed")
		return n, err
	}
	if n > 0 {
		s.log.Info().Int64("updated", n).Msg("event statuses synced")
	}
	return n, nil
}

// Run sweeps immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	_, _ = s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("status sweeper stopped")
			return
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}
