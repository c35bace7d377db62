package schedule

import (
	"context"
	"fmt"
	"time"
)

// Ledger answers whether a slot already fired. The full activation ledger
// lives in the store package; the evaluator only needs the membership query.
type Ledger interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// Evaluator decides whether a plan entry is due. A slot is due when its
// nominal time has passed, "now" is still inside the margin window, and the
// ledger holds no record for the slot's canonical key. Both window
// boundaries are exclusive: a slot exactly at now is not yet due, and a slot
// exactly margin old is already stale.
//
// Filtering out inactive items is the caller's responsibility, not the
// evaluator's.
type Evaluator struct {
	ledger Ledger
	margin time.Duration
}

// NewEvaluator creates an evaluator with the given firing window. The margin
// must be strictly greater than the execution loop's poll interval, which is
// enforced at configuration time.
func NewEvaluator(ledger Ledger, margin time.Duration) *Evaluator {
	return &Evaluator{ledger: ledger, margin: margin}
}

// SlotKey formats a slot time as its canonical ledger key.
func SlotKey(slot time.Time) string {
	return slot.Format(SlotKeyLayout)
}

// DueRecurring reports whether a recurring entry is due at now, together
// with the canonical key of today's slot for that entry.
func (e *Evaluator) DueRecurring(ctx context.Context, item ScheduledActivation, now time.Time) (bool, string, error) {
	tod, err := time.Parse(TimeOfDayLayout, item.TimeOfDay)
	if err != nil {
		return false, "", fmt.Errorf("invalid time of day %q: %w", item.TimeOfDay, err)
	}

	slot := time.Date(now.Year(), now.Month(), now.Day(), tod.Hour(), tod.Minute(), 0, 0, now.Location())
	return e.dueAt(ctx, slot, now)
}

// DueOneTime reports whether a one-time entry is due at now, together with
// its canonical slot key.
func (e *Evaluator) DueOneTime(ctx context.Context, item OneTimeActivation, now time.Time) (bool, string, error) {
	return e.dueAt(ctx, item.Timestamp, now)
}

func (e *Evaluator) dueAt(ctx context.Context, slot, now time.Time) (bool, string, error) {
	key := SlotKey(slot)

	if !now.After(slot) {
		return false, key, nil
	}
	if now.Sub(slot) >= e.margin {
		return false, key, nil
	}

	fired, err := e.ledger.Exists(ctx, key)
	if err != nil {
		return false, key, err
	}
	return !fired, key, nil
}
