package executor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// HeartbeatSender reports device liveness to the remote backend.
type HeartbeatSender interface {
	SendHeartbeat(ctx context.Context) error
}

// Heartbeat periodically signals that the device is alive. It runs
// independently of the execution loop; a failing backend stops neither.
type Heartbeat struct {
	backend  HeartbeatSender
	status   *Status
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewHeartbeat creates a heartbeat loop.
func NewHeartbeat(backend HeartbeatSender, status *Status, interval time.Duration, log zerolog.Logger) *Heartbeat {
	return &Heartbeat{
		backend:  backend,
		status:   status,
		interval: interval,
		now:      time.Now,
		log:      log.With().Str("component", "heartbeat").Logger(),
	}
}

// Run sends heartbeats until the context is cancelled.
func (h *Heartbeat) Run(ctx context.Context) {
	h.log.Info().Dur("interval", h.interval).Msg("starting heartbeat loop")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("heartbeat loop shutting down")
			return
		case <-ticker.C:
			h.Tick(ctx)
		}
	}
}

// Tick sends a single heartbeat. Failures are logged and recorded but never
// propagate.
func (h *Heartbeat) Tick(ctx context.Context) {
	err := h.backend.SendHeartbeat(ctx)
	h.status.RecordHeartbeat(h.now(), err == nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("heartbeat failed")
	}
}
