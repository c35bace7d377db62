package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memLedger is an in-memory Ledger for evaluator tests.
type memLedger struct {
	keys      map[string]bool
	existsErr error
	storeErr  error
	stored    []PumpActivation
}

func newMemLedger() *memLedger {
	return &memLedger{keys: make(map[string]bool)}
}

func (m *memLedger) Exists(_ context.Context, key string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.keys[key], nil
}

func (m *memLedger) Store(_ context.Context, activation PumpActivation) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	m.keys[activation.Timestamp] = true
	m.stored = append(m.stored, activation)
	return nil
}

func (m *memLedger) Recent(_ context.Context, limit int) ([]PumpActivation, error) {
	if limit > len(m.stored) {
		limit = len(m.stored)
	}
	return m.stored[:limit], nil
}

func (m *memLedger) PruneBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 12, hour, minute, 0, 0, time.Local)
}

func TestDueRecurring_Window(t *testing.T) {
	item := ScheduledActivation{TimeOfDay: "08:00", Amount: 200, Active: true}

	testCases := []struct {
		name string
		now  time.Time
		due  bool
	}{
		{name: "inside window", now: at(8, 30), due: true},
		{name: "exactly at slot is not yet due", now: at(8, 0), due: false},
		{name: "exactly at margin is stale", now: at(9, 0), due: false},
		{name: "past margin", now: at(9, 5), due: false},
		{name: "before slot", now: at(7, 59), due: false},
		{name: "one minute after slot", now: at(8, 1), due: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			evaluator := NewEvaluator(newMemLedger(), 60*time.Minute)

			due, key, err := evaluator.DueRecurring(context.Background(), item, tc.now)
			require.NoError(t, err)
			assert.Equal(t, tc.due, due)
			assert.Equal(t, "2024-05-12T08:00:00", key)
		})
	}
}

func TestDueRecurring_DedupAcrossCycles(t *testing.T) {
	ledger := newMemLedger()
	evaluator := NewEvaluator(ledger, 60*time.Minute)
	item := ScheduledActivation{TimeOfDay: "08:00", Amount: 200, Active: true}

	due, key, err := evaluator.DueRecurring(context.Background(), item, at(8, 30))
	require.NoError(t, err)
	require.True(t, due)

	require.NoError(t, ledger.Store(context.Background(), PumpActivation{Timestamp: key, Amount: 200}))

	// Same slot, later in the same window: already fired.
	due, _, err = evaluator.DueRecurring(context.Background(), item, at(8, 45))
	require.NoError(t, err)
	assert.False(t, due)
}

func TestDueRecurring_InvalidTimeOfDay(t *testing.T) {
	evaluator := NewEvaluator(newMemLedger(), 60*time.Minute)
	item := ScheduledActivation{TimeOfDay: "25:99", Amount: 200, Active: true}

	_, _, err := evaluator.DueRecurring(context.Background(), item, at(8, 30))
	assert.Error(t, err)
}

func TestDueRecurring_LedgerError(t *testing.T) {
	ledger := newMemLedger()
	ledger.existsErr = errors.New("database locked")
	evaluator := NewEvaluator(ledger, 60*time.Minute)
	item := ScheduledActivation{TimeOfDay: "08:00", Amount: 200, Active: true}

	_, _, err := evaluator.DueRecurring(context.Background(), item, at(8, 30))
	assert.Error(t, err)
}

func TestDueOneTime_Window(t *testing.T) {
	slot := at(14, 0)
	item := OneTimeActivation{Timestamp: slot, Amount: 500}

	testCases := []struct {
		name string
		now  time.Time
		due  bool
	}{
		{name: "inside window", now: slot.Add(30 * time.Minute), due: true},
		{name: "exactly at slot", now: slot, due: false},
		{name: "exactly at margin", now: slot.Add(60 * time.Minute), due: false},
		{name: "before slot", now: slot.Add(-time.Minute), due: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			evaluator := NewEvaluator(newMemLedger(), 60*time.Minute)

			due, key, err := evaluator.DueOneTime(context.Background(), item, tc.now)
			require.NoError(t, err)
			assert.Equal(t, tc.due, due)
			assert.Equal(t, "2024-05-12T14:00:00", key)
		})
	}
}

func TestDueOneTime_AlreadyFired(t *testing.T) {
	ledger := newMemLedger()
	ledger.keys["2024-05-12T14:00:00"] = true
	evaluator := NewEvaluator(ledger, 60*time.Minute)

	item := OneTimeActivation{Timestamp: at(14, 0), Amount: 500}
	due, _, err := evaluator.DueOneTime(context.Background(), item, at(14, 30))
	require.NoError(t, err)
	assert.False(t, due)
}

func TestSlotKey(t *testing.T) {
	assert.Equal(t, "2024-05-12T08:05:00", SlotKey(at(8, 5)))
}
