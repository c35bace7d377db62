// Package store persists the last-known-good circuit and the pump
// activation ledger in the local database.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"garden-controller/internal/model"
	"garden-controller/internal/schedule"
)

// Cache is the durable last-known-good copy of the circuit. It is replaced
// wholesale on every successful remote fetch and never carries a one-time
// activation.
type Cache interface {
	// Fetch returns the cached circuit, or nil when nothing is cached.
	Fetch(ctx context.Context) (*schedule.Circuit, error)
	// Store replaces the cached circuit and its plan in one transaction.
	Store(ctx context.Context, circuit *schedule.Circuit) error
}

// Ledger is the append-only record of executed pump activations, keyed by
// canonical slot timestamp.
type Ledger interface {
	// Exists reports whether an activation was already recorded for the key.
	Exists(ctx context.Context, key string) (bool, error)
	// Store appends a new activation record.
	Store(ctx context.Context, activation schedule.PumpActivation) error
	// Recent returns the newest activations, newest first.
	Recent(ctx context.Context, limit int) ([]schedule.PumpActivation, error)
	// PruneBefore deletes records created before the cutoff and returns the
	// number removed. Retention is a deliberate local policy; the trigger
	// window never looks further back than the margin.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// circuitCache implements Cache using GORM.
type circuitCache struct {
	db *gorm.DB
}

// NewCircuitCache creates a GORM-backed circuit cache.
func NewCircuitCache(db *gorm.DB) Cache {
	return &circuitCache{db: db}
}

// Fetch returns the cached circuit with its plan in stored order, or nil
// when the cache is empty.
func (c *circuitCache) Fetch(ctx context.Context) (*schedule.Circuit, error) {
	var entity model.Circuit
	err := c.db.WithContext(ctx).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cached circuit: %w", err)
	}

	var items []model.ScheduledActivation
	if err := c.db.WithContext(ctx).
		Where("circuit_id = ?", entity.ID).
		Order("position asc").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch cached plan: %w", err)
	}

	circuit := &schedule.Circuit{
		ID:     entity.ID,
		Name:   entity.Name,
		Active: entity.Active,
	}
	for _, item := range items {
		circuit.Plan = append(circuit.Plan, schedule.ScheduledActivation{
			TimeOfDay: item.TimeOfDay,
			Amount:    item.Amount,
			Active:    item.Active,
		})
	}
	return circuit, nil
}

// Store replaces the cached circuit: prior plan rows and the circuit row
// are deleted and the fresh copy inserted in a single transaction. The
// one-time activation, if any, is intentionally dropped.
func (c *circuitCache) Store(ctx context.Context, circuit *schedule.Circuit) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&model.ScheduledActivation{}).Error; err != nil {
			return fmt.Errorf("failed to clear cached plan: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&model.Circuit{}).Error; err != nil {
			return fmt.Errorf("failed to clear cached circuit: %w", err)
		}

		entity := model.Circuit{
			ID:     circuit.ID,
			Name:   circuit.Name,
			Active: circuit.Active,
		}
		if err := tx.Create(&entity).Error; err != nil {
			return fmt.Errorf("failed to store circuit: %w", err)
		}

		for i, item := range circuit.Plan {
			row := model.ScheduledActivation{
				CircuitID: circuit.ID,
				TimeOfDay: item.TimeOfDay,
				Amount:    item.Amount,
				Active:    item.Active,
				Position:  i,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to store plan item %d: %w", i, err)
			}
		}
		return nil
	})
}

// activationLedger implements Ledger using GORM.
type activationLedger struct {
	db *gorm.DB
}

// NewActivationLedger creates a GORM-backed activation ledger.
func NewActivationLedger(db *gorm.DB) Ledger {
	return &activationLedger{db: db}
}

// Exists reports whether an activation with the given slot key is recorded.
func (l *activationLedger) Exists(ctx context.Context, key string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&model.PumpActivation{}).
		Where("timestamp = ?", key).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query activation %q: %w", key, err)
	}
	return count > 0, nil
}

// Store appends a new activation record.
func (l *activationLedger) Store(ctx context.Context, activation schedule.PumpActivation) error {
	row := model.PumpActivation{
		Timestamp: activation.Timestamp,
		Amount:    activation.Amount,
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to store activation %q: %w", activation.Timestamp, err)
	}
	return nil
}

// Recent returns up to limit activations, newest first.
func (l *activationLedger) Recent(ctx context.Context, limit int) ([]schedule.PumpActivation, error) {
	var rows []model.PumpActivation
	if err := l.db.WithContext(ctx).
		Order("timestamp desc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent activations: %w", err)
	}

	activations := make([]schedule.PumpActivation, 0, len(rows))
	for _, row := range rows {
		activations = append(activations, schedule.PumpActivation{
			Timestamp: row.Timestamp,
			Amount:    row.Amount,
		})
	}
	return activations, nil
}

// PruneBefore deletes activation records created before the cutoff.
func (l *activationLedger) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := l.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.PumpActivation{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune activations: %w", result.Error)
	}
	return result.RowsAffected, nil
}
