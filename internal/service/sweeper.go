package service

import (
	"context"
	"time"

	"classroom/internal/repository"
)

const defaultSweepInterval = 5 * time.Minute

// SweeperService deletes expired sessions on every tick.
type SweeperService struct {
	store repository.SessionStore

	// OnSweep, when set, observes each sweep result.
	OnSweep func(removed int64, err error)
}

func NewSweeperService(store repository.SessionStore) *SweeperService {
	return &SweeperService{store: store}
}

// Run ticks at the given interval until ctx is canceled. A non-positive
// interval falls back to defaultSweepInterval.
func (s *SweeperService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = defaultSweepInterval
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := s.store.DeleteExpired(ctx, now.UTC())
			if s.OnSweep != nil {
				s.OnSweep(n, err)
			}
		}
	}
}
