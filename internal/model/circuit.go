package model

import "time"

// Circuit is the locally cached copy of the watering circuit. There is at
// most one row; every successful remote fetch replaces it wholesale.
type Circuit struct {
	ID        int64  `gorm:"primaryKey"` // Upstream ID
	Name      string `gorm:"size:256;not null"`
	Active    bool   `gorm:"not null"`
	UpdatedAt time.Time

	// Associations
	Schedule []ScheduledActivation `gorm:"foreignKey:CircuitID"`
}
