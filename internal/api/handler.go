// Package api exposes a small read-only HTTP surface for on-LAN inspection
// of the controller: current circuit, recent activations and loop health.
package api

import (
	"garden-controller/internal/executor"
	"garden-controller/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	cache  store.Cache
	ledger store.Ledger
	status *executor.Status
}

// NewHandler creates a new API handler.
func NewHandler(cache store.Cache, ledger store.Ledger, status *executor.Status) *Handler {
	return &Handler{
		cache:  cache,
		ledger: ledger,
		status: status,
	}
}
