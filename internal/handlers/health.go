package handlers

import (
	"net/http"

	"github.com/analyticsPapy/trainlytics-app/internal/store"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports process and database liveness.
type HealthHandler struct {
	store *store.Store
}

func NewHealthHandler(s *store.Store) *HealthHandler {
	return &HealthHandler{store: s}
}

// Health answers readiness probes. Database trouble degrades the
// response to 503 so the orchestrator stops routing here.
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.store.Health(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"detail": "database unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
