package worker

import (
	"context"
	"log"
	"time"

	"vidref-bot/internal/store"
)

// Sweeper periodically bulk-resets every user whose quota window date has
// fallen behind today's UTC date. The per-user lazy reset in the quota engine
// keeps gating correct on its own; the sweep exists to normalize idle users'
// stored counters and bound drift.
type Sweeper struct {
	Users    *store.UserStore
	Interval time.Duration
}

func NewSweeper(users *store.UserStore, interval time.Duration) *Sweeper {
	return &Sweeper{Users: users, Interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
// A failed sweep is logged and waits for the next tick; it never stops the
// loop.
func (s *Sweeper) Run(ctx context.Context) {
	log.Println("Daily-reset sweeper started")

	s.sweep()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Daily-reset sweeper stopped")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	modified, err := s.Users.SweepStale(store.Today())
	if err != nil {
		log.Printf("Daily-reset error: %v", err)
		return
	}
	if modified > 0 {
		log.Printf("Reset daily limits for %d user(s)", modified)
	}
}
