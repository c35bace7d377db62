package model

import "time"

// PumpActivation is one executed trigger. Timestamp is the canonical slot
// key, not the firing time; the unique index on it backs the at-most-once
// guarantee for a slot.
type PumpActivation struct {
	ID        int64     `gorm:"autoIncrement;primaryKey"`
	Timestamp string    `gorm:"uniqueIndex;size:32;not null"`
	Amount    int       `gorm:"not null"` // ml
	CreatedAt time.Time `gorm:"not null;index"`
}
