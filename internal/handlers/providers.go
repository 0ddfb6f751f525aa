package handlers

import (
	"net/http"
	"strconv"

	"github.com/analyticsPapy/trainlytics-app/internal/middleware"
	"github.com/analyticsPapy/trainlytics-app/internal/providers"
	"github.com/analyticsPapy/trainlytics-app/internal/services"

	"github.com/gin-gonic/gin"
)

// ProvidersHandler serves the connection registry and sync endpoints.
type ProvidersHandler struct {
	connections *services.ConnectionService
	sync        *services.SyncService
}

func NewProvidersHandler(
	connections *services.ConnectionService,
	sync *services.SyncService,
) *ProvidersHandler {
	return &ProvidersHandler{
		connections: connections,
		sync:        sync,
	}
}

// Available lists the provider catalog, implemented or not. Public.
func (h *ProvidersHandler) Available(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": providers.Catalog(),
	})
}

// ListConnections returns the user's connections, optionally only the
// active ones.
func (h *ProvidersHandler) ListConnections(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active_only", "false"))

	conns, err := h.connections.List(middleware.UserID(c), activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"connections": conns,
		"total":       len(conns),
	})
}

// GetConnection returns one connection the user owns.
func (h *ProvidersHandler) GetConnection(c *gin.Context) {
	conn, err := h.connections.Get(c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// GetConnectionByProvider returns the user's connection for a provider.
func (h *ProvidersHandler) GetConnectionByProvider(c *gin.Context) {
	conn, err := h.connections.GetByProvider(middleware.UserID(c), c.Param("provider"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// ToggleConnection flips a connection active or inactive. The target
// state comes from the is_active query parameter.
func (h *ProvidersHandler) ToggleConnection(c *gin.Context) {
	raw, ok := c.GetQuery("is_active")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation_error",
			"detail": "is_active query parameter is required",
		})
		return
	}
	active, err := strconv.ParseBool(raw)
	if err != nil {
		respondBindError(c, err)
		return
	}

	conn, err := h.connections.SetActive(c.Param("id"), middleware.UserID(c), active)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// DeleteConnection disconnects a provider. Imported activities stay.
func (h *ProvidersHandler) DeleteConnection(c *gin.Context) {
	if err := h.connections.Disconnect(c.Param("id"), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Connection removed",
	})
}

// Summary returns the per-user dashboard rollup.
func (h *ProvidersHandler) Summary(c *gin.Context) {
	summary, err := h.connections.Summary(middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// TriggerSync runs one synchronous sync for the connection.
func (h *ProvidersHandler) TriggerSync(c *gin.Context) {
	result, err := h.sync.Run(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SyncHistory returns the most recent sync attempts for a connection.
func (h *ProvidersHandler) SyncHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		respondBindError(c, err)
		return
	}

	page, err := h.sync.History(middleware.UserID(c), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// SyncStatus returns the latest sync outcome for a connection.
func (h *ProvidersHandler) SyncStatus(c *gin.Context) {
	status, err := h.sync.Status(middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
