package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultActivationLimit = 20
	maxActivationLimit     = 200
)

// activationResponse is one ledger entry in GET /api/v1/activations.
type activationResponse struct {
	Timestamp string `json:"timestamp"`
	Amount    int    `json:"amount"`
}

// GetActivations handles the GET /api/v1/activations request.
func (h *Handler) GetActivations(c *gin.Context) {
	limit := defaultActivationLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		if parsed > maxActivationLimit {
			parsed = maxActivationLimit
		}
		limit = parsed
	}

	activations, err := h.ledger.Recent(c.Request.Context(), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to read activations"})
		return
	}

	resp := make([]activationResponse, 0, len(activations))
	for _, a := range activations {
		resp = append(resp, activationResponse{Timestamp: a.Timestamp, Amount: a.Amount})
	}

	c.JSON(http.StatusOK, resp)
}
