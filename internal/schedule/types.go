// Package schedule holds the watering domain model, the online-first circuit
// repository and the trigger window evaluation.
package schedule

import "time"

// SlotKeyLayout is the canonical timestamp format identifying a watering
// slot in the activation ledger and the execution log.
const SlotKeyLayout = "2006-01-02T15:04:05"

// TimeOfDayLayout is the wall-clock format of recurring plan entries.
const TimeOfDayLayout = "15:04"

// Circuit is the complete watering configuration for one device.
type Circuit struct {
	ID     int64
	Name   string
	Active bool // master switch; false suppresses all triggering
	// OneTime is the single-shot entry for today, if any. It is only ever
	// populated from the remote backend; the local cache does not carry it.
	OneTime *OneTimeActivation
	Plan    []ScheduledActivation // stored order is the evaluation order
}

// ScheduledActivation is one recurring plan entry, firing daily.
type ScheduledActivation struct {
	TimeOfDay string // "HH:MM"
	Amount    int    // ml
	Active    bool
}

// OneTimeActivation is a single absolute-time trigger.
type OneTimeActivation struct {
	Timestamp time.Time
	Amount    int // ml
}

// PumpActivation records an executed trigger. Timestamp is the canonical
// slot key, not the moment the pump actually engaged.
type PumpActivation struct {
	Timestamp string
	Amount    int // ml
}
