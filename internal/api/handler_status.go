package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// statusResponse is the body of GET /api/v1/status.
type statusResponse struct {
	LastSource      string     `json:"lastSource"`
	LastResolvedAt  *time.Time `json:"lastResolvedAt"`
	LastHeartbeatAt *time.Time `json:"lastHeartbeatAt"`
	LastHeartbeatOK bool       `json:"lastHeartbeatOk"`
}

// GetStatus handles the GET /api/v1/status request.
func (h *Handler) GetStatus(c *gin.Context) {
	snap := h.status.Snapshot()

	resp := statusResponse{
		LastSource:      snap.LastSource.String(),
		LastHeartbeatOK: snap.LastHeartbeatOK,
	}
	if !snap.LastResolvedAt.IsZero() {
		t := snap.LastResolvedAt
		resp.LastResolvedAt = &t
	}
	if !snap.LastHeartbeatAt.IsZero() {
		t := snap.LastHeartbeatAt
		resp.LastHeartbeatAt = &t
	}

	c.JSON(http.StatusOK, resp)
}
