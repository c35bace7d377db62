package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"garden-controller/internal/store"
)

// Runner is a long-running loop that returns only when its context is
// cancelled.
type Runner interface {
	Run(ctx context.Context)
}

// Supervisor runs the execution and heartbeat loops concurrently and is the
// outermost safety net: when either loop panics or exits unexpectedly, both
// are stopped, the failure is logged at error level, and both are restarted
// from scratch after a cooldown.
type Supervisor struct {
	loop      Runner
	heartbeat Runner
	ledger    store.Ledger
	retention time.Duration
	cooldown  time.Duration
	log       zerolog.Logger
}

// NewSupervisor creates a supervisor for the given loops.
func NewSupervisor(loop, heartbeat Runner, ledger store.Ledger, retention, cooldown time.Duration,
	log zerolog.Logger) *Supervisor {
	return &Supervisor{
		loop:      loop,
		heartbeat: heartbeat,
		ledger:    ledger,
		retention: retention,
		cooldown:  cooldown,
		log:       log.With().Str("component", "supervisor").Logger(),
	}
}

// Run supervises both loops until the context is cancelled.
func (s *Supervisor) Run(ctx context.Context) {
	s.pruneLedger(ctx)

	for {
		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			s.log.Info().Msg("supervisor shutting down")
			return
		}

		// Restarts must stay visible; a silent restart loop would mask a
		// persistent failure.
		s.log.Error().Err(err).Dur("cooldown", s.cooldown).Msg("loop failure, restarting after cooldown")

		select {
		case <-time.After(s.cooldown):
		case <-ctx.Done():
			s.log.Info().Msg("supervisor shutting down")
			return
		}
	}
}

// runOnce starts both loops and blocks until one of them fails or the
// context is cancelled. On failure the sibling loop is stopped too, so both
// restart together.
func (s *Supervisor) runOnce(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	s.startGuarded(runCtx, "execution loop", s.loop, errCh)
	s.startGuarded(runCtx, "heartbeat loop", s.heartbeat, errCh)

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	return firstErr
}

// startGuarded runs a loop on its own goroutine, converting panics into
// errors and treating a return without cancellation as a failure.
func (s *Supervisor) startGuarded(ctx context.Context, name string, r Runner, errCh chan<- error) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				errCh <- fmt.Errorf("%s panicked: %v", name, rec)
			}
		}()

		r.Run(ctx)

		if ctx.Err() == nil {
			errCh <- fmt.Errorf("%s exited unexpectedly", name)
			return
		}
		errCh <- nil
	}()
}

// pruneLedger applies the retention policy once per supervisor start.
func (s *Supervisor) pruneLedger(ctx context.Context) {
	if s.ledger == nil || s.retention <= 0 {
		return
	}

	cutoff := time.Now().Add(-s.retention)
	pruned, err := s.ledger.PruneBefore(ctx, cutoff)
	if err != nil {
		s.log.Warn().Err(err).Msg("could not prune activation ledger")
		return
	}
	if pruned > 0 {
		s.log.Info().Int64("pruned", pruned).Time("cutoff", cutoff).Msg("pruned activation ledger")
	}
}
