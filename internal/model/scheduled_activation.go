package model

// ScheduledActivation is one cached recurring plan entry. The whole table is
// rewritten together with the circuit row, so rows never outlive their
// circuit. One-time activations are deliberately not cached.
type ScheduledActivation struct {
	ID        int64  `gorm:"autoIncrement;primaryKey"`
	CircuitID int64  `gorm:"index;not null"`
	TimeOfDay string `gorm:"size:8;not null"` // "HH:MM", recurs daily
	Amount    int    `gorm:"not null"`        // ml
	Active    bool   `gorm:"not null"`
	Position  int    `gorm:"not null"` // preserves the plan's stored order

	// Associations
	Circuit Circuit `gorm:"constraint:OnDelete:CASCADE"`
}
