// Package pump controls the water pump. The real implementation drives a
// GPIO line through the Linux GPIO character device; a fake implementation
// allows testing without hardware.
package pump

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Output drives the physical pump relay.
type Output interface {
	// On engages the pump.
	On() error

	// Off disengages the pump.
	Off() error

	// Close releases the underlying resources, disengaging first.
	Close() error
}

// Controller converts water volumes into activation durations and drives an
// Output. The flow rate has to be measured for each physical pump and
// supplied at construction.
type Controller struct {
	out         Output
	mlPerSecond float64
	log         zerolog.Logger
}

// NewController creates a pump controller. mlPerSecond must be positive.
func NewController(out Output, mlPerSecond float64, log zerolog.Logger) (*Controller, error) {
	if mlPerSecond <= 0 {
		return nil, fmt.Errorf("ml per second must be positive, got %v", mlPerSecond)
	}
	return &Controller{
		out:         out,
		mlPerSecond: mlPerSecond,
		log:         log.With().Str("component", "pump").Logger(),
	}, nil
}

// Duration returns how long the pump must run for the given water volume.
func (c *Controller) Duration(amountML int) time.Duration {
	seconds := float64(amountML) / c.mlPerSecond
	return time.Duration(seconds * float64(time.Second))
}

// Activate engages the pump for the duration matching amountML, blocking
// until the water has flowed or the context is cancelled. The pump is
// disengaged on either path.
func (c *Controller) Activate(ctx context.Context, amountML int) error {
	duration := c.Duration(amountML)
	c.log.Info().Int("amount_ml", amountML).Dur("duration", duration).Msg("engaging pump")

	if err := c.out.On(); err != nil {
		return fmt.Errorf("engage pump: %w", err)
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	var runErr error
	select {
	case <-timer.C:
	case <-ctx.Done():
		runErr = ctx.Err()
	}

	if err := c.out.Off(); err != nil {
		if runErr != nil {
			return fmt.Errorf("disengage pump after %v: %w", runErr, err)
		}
		return fmt.Errorf("disengage pump: %w", err)
	}
	return runErr
}

// ActivateAsync triggers an activation on its own goroutine so the caller
// is not stalled while watering occurs. Failures are logged.
func (c *Controller) ActivateAsync(amountML int) {
	go func() {
		if err := c.Activate(context.Background(), amountML); err != nil {
			c.log.Error().Err(err).Int("amount_ml", amountML).Msg("async pump activation failed")
		}
	}()
}

// Close releases the output.
func (c *Controller) Close() error {
	return c.out.Close()
}
