package views

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultSweepEvery = time.Minute

// SessionChecker reports whether a session is still live. Checking must not
// extend the session.
type SessionChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Sweeper releases the views of sessions that expired without a logout.
type Sweeper struct {
	manager  *Manager
	sessions SessionChecker
	every    time.Duration
}

func NewSweeper(manager *Manager, sessions SessionChecker, every time.Duration) *Sweeper {
	if every <= 0 {
		every = DefaultSweepEvery
	}
	return &Sweeper{manager: manager, sessions: sessions, every: every}
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	log.Info().Dur("every", s.every).Msg("view sweeper started")

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("view sweeper stopping")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("view sweep incomplete")
			}
		}
	}
}

// Sweep unmounts the views of every session that no longer exists and
// returns how many views it released. Sessions whose check fails are kept
// for the next sweep.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	var (
		released int
		errs     []error
	)
	for _, id := range s.manager.Sessions() {
		ok, err := s.sessions.Exists(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			released += s.manager.UnmountSession(id)
		}
	}
	if released > 0 {
		log.Info().Int("count", released).Msg("views of expired sessions released")
	}
	return released, errors.Join(errs...)
}
