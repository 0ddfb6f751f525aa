package handlers

import (
	"errors"
	"net/http"

	"github.com/analyticsPapy/trainlytics-app/internal/services"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error to its HTTP status and a stable
// machine-readable code. The detail text is the error message; token
// material never flows through the taxonomy so nothing secret leaks.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, services.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, services.ErrSyncRunning):
		status, code = http.StatusConflict, "sync_already_running"
	case errors.Is(err, services.ErrInvalidState):
		status, code = http.StatusBadRequest, "invalid_state"
	case errors.Is(err, services.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, services.ErrUnknownProvider):
		status, code = http.StatusBadRequest, "unknown_provider"
	case errors.Is(err, services.ErrConnectionInactive):
		status, code = http.StatusBadRequest, "connection_inactive"
	case errors.Is(err, services.ErrProviderNotImplemented):
		status, code = http.StatusNotImplemented, "provider_not_implemented"
	case errors.Is(err, services.ErrUpstreamProvider):
		status, code = http.StatusBadGateway, "upstream_provider_error"
	}

	detail := err.Error()
	if status == http.StatusInternalServerError {
		// Internal errors keep their cause out of the response body.
		detail = "internal server error"
	}

	c.JSON(status, gin.H{
		"error":  code,
		"detail": detail,
	})
}

// respondBindError reports a malformed request body or query.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  "validation_error",
		"detail": err.Error(),
	})
}
