package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// circuitResponse is the body of GET /api/v1/circuit.
type circuitResponse struct {
	ID       int64              `json:"id"`
	Name     string             `json:"name"`
	Active   bool               `json:"active"`
	Schedule []planItemResponse `json:"schedule"`
}

type planItemResponse struct {
	Time   string `json:"time"`
	Amount int    `json:"amount"`
	Active bool   `json:"active"`
}

// GetCircuit handles the GET /api/v1/circuit request. It serves the cached
// copy; the cache trails the backend by at most one poll interval.
func (h *Handler) GetCircuit(c *gin.Context) {
	circuit, err := h.cache.Fetch(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to read cached circuit"})
		return
	}
	if circuit == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "No circuit cached yet"})
		return
	}

	resp := circuitResponse{
		ID:       circuit.ID,
		Name:     circuit.Name,
		Active:   circuit.Active,
		Schedule: make([]planItemResponse, 0, len(circuit.Plan)),
	}
	for _, item := range circuit.Plan {
		resp.Schedule = append(resp.Schedule, planItemResponse{
			Time:   item.TimeOfDay,
			Amount: item.Amount,
			Active: item.Active,
		})
	}

	c.JSON(http.StatusOK, resp)
}
