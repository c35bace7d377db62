package executor

import (
	"sync"
	"time"

	"garden-controller/internal/schedule"
)

// Status tracks the controller's last observed state for the local status
// API. It is written by the execution and heartbeat loops and read by the
// HTTP handlers.
type Status struct {
	mu sync.RWMutex

	lastSource      schedule.Source
	lastResolvedAt  time.Time
	lastHeartbeatAt time.Time
	lastHeartbeatOK bool
}

// Snapshot is a point-in-time copy of the controller status.
type Snapshot struct {
	LastSource      schedule.Source
	LastResolvedAt  time.Time
	LastHeartbeatAt time.Time
	LastHeartbeatOK bool
}

// NewStatus creates an empty status tracker.
func NewStatus() *Status {
	return &Status{}
}

// RecordResolution notes the outcome of a circuit fetch.
func (s *Status) RecordResolution(source schedule.Source, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSource = source
	s.lastResolvedAt = at
}

// RecordHeartbeat notes the outcome of a heartbeat tick.
func (s *Status) RecordHeartbeat(at time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastHeartbeatAt = at
	s.lastHeartbeatOK = ok
}

// Snapshot returns a copy of the current status.
func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		LastSource:      s.lastSource,
		LastResolvedAt:  s.lastResolvedAt,
		LastHeartbeatAt: s.lastHeartbeatAt,
		LastHeartbeatOK: s.lastHeartbeatOK,
	}
}
