// Package executor runs the schedule execution and heartbeat loops under a
// restarting supervisor.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"garden-controller/internal/schedule"
	"garden-controller/internal/store"
)

// Fetcher resolves the current circuit.
type Fetcher interface {
	Fetch(ctx context.Context) schedule.Resolution
}

// Actuator triggers the pump without stalling the caller.
type Actuator interface {
	ActivateAsync(amountML int)
}

// LogSender reports executed activations to the remote backend.
type LogSender interface {
	SendExecutionLog(ctx context.Context, activation schedule.PumpActivation) error
}

// Loop repeatedly resolves the circuit, evaluates due slots and fires the
// pump. It keeps no state across iterations: a failed cycle loses at most
// that cycle's progress.
type Loop struct {
	repo      Fetcher
	evaluator *schedule.Evaluator
	ledger    store.Ledger
	pump      Actuator
	backend   LogSender
	status    *Status
	interval  time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewLoop creates an execution loop.
func NewLoop(repo Fetcher, evaluator *schedule.Evaluator, ledger store.Ledger, pump Actuator,
	backend LogSender, status *Status, interval time.Duration, log zerolog.Logger) *Loop {
	return &Loop{
		repo:      repo,
		evaluator: evaluator,
		ledger:    ledger,
		pump:      pump,
		backend:   backend,
		status:    status,
		interval:  interval,
		now:       time.Now,
		log:       log.With().Str("component", "executor").Logger(),
	}
}

// Run executes cycles until the context is cancelled.
func (l *Loop) Run(ctx context.Context) {
	l.log.Info().Dur("interval", l.interval).Msg("starting schedule execution loop")

	l.RunCycle(ctx)

	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			l.log.Info().Msg("schedule execution loop shutting down")
			return
		case <-timer.C:
			l.RunCycle(ctx)
			timer.Reset(l.interval)
		}
	}
}

// RunCycle performs one resolve-evaluate-activate-record pass. An error
// anywhere in item evaluation aborts the remaining items of this cycle only;
// the next cycle starts clean.
func (l *Loop) RunCycle(ctx context.Context) {
	res := l.repo.Fetch(ctx)
	l.status.RecordResolution(res.Source, l.now())

	if res.Circuit == nil {
		l.log.Warn().Msg("circuit unavailable, skipping cycle")
		return
	}
	if !res.Circuit.Active {
		l.log.Debug().Msg("circuit inactive, skipping cycle")
		return
	}

	if err := l.evaluate(ctx, res.Circuit); err != nil {
		l.log.Error().Err(err).Msg("cycle aborted")
	}
}

// evaluate walks the circuit: the one-time activation first, then recurring
// items in stored order. All due items fire within the same cycle.
func (l *Loop) evaluate(ctx context.Context, circuit *schedule.Circuit) error {
	if circuit.OneTime != nil {
		due, key, err := l.evaluator.DueOneTime(ctx, *circuit.OneTime, l.now())
		if err != nil {
			return err
		}
		if due {
			l.fire(ctx, key, circuit.OneTime.Amount)
		}
	}

	for _, item := range circuit.Plan {
		if !item.Active {
			continue
		}
		due, key, err := l.evaluator.DueRecurring(ctx, item, l.now())
		if err != nil {
			return err
		}
		if due {
			l.fire(ctx, key, item.Amount)
		}
	}
	return nil
}

// fire triggers the pump and records the activation: the ledger write and
// the backend execution log run concurrently, each best-effort with its own
// error boundary, and are joined before the cycle proceeds.
func (l *Loop) fire(ctx context.Context, slotKey string, amountML int) {
	l.log.Info().Str("slot", slotKey).Int("amount_ml", amountML).Msg("activating the pump")
	l.pump.ActivateAsync(amountML)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		activation := schedule.PumpActivation{Timestamp: slotKey, Amount: amountML}
		if err := l.ledger.Store(ctx, activation); err != nil {
			l.log.Error().Err(err).Str("slot", slotKey).Msg("could not record activation in ledger")
		}
	}()

	go func() {
		defer wg.Done()
		// The execution log carries the firing time, not the slot key.
		entry := schedule.PumpActivation{
			Timestamp: l.now().Format(schedule.SlotKeyLayout),
			Amount:    amountML,
		}
		if err := l.backend.SendExecutionLog(ctx, entry); err != nil {
			l.log.Error().Err(err).Str("slot", slotKey).Msg("could not send execution log")
		}
	}()

	wg.Wait()
}
