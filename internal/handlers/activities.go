package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/middleware"
	"github.com/analyticsPapy/trainlytics-app/internal/services"
	"github.com/analyticsPapy/trainlytics-app/internal/store"

	"github.com/gin-gonic/gin"
)

// ActivitiesHandler serves manual and imported activities.
type ActivitiesHandler struct {
	activities *services.ActivityService
}

func NewActivitiesHandler(activities *services.ActivityService) *ActivitiesHandler {
	return &ActivitiesHandler{activities: activities}
}

// parseTimeQuery accepts RFC3339 or a bare date for range filters.
func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("invalid %s: %q", name, raw)
}

func parseIntQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// List returns a filtered page of the user's activities.
func (h *ActivitiesHandler) List(c *gin.Context) {
	startDate, err := parseTimeQuery(c, "start_date")
	if err != nil {
		respondBindError(c, err)
		return
	}
	endDate, err := parseTimeQuery(c, "end_date")
	if err != nil {
		respondBindError(c, err)
		return
	}
	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		respondBindError(c, err)
		return
	}
	offset, err := parseIntQuery(c, "offset", 0)
	if err != nil {
		respondBindError(c, err)
		return
	}

	activities, err := h.activities.List(middleware.UserID(c), store.ActivityFilter{
		ActivityType: c.Query("activity_type"),
		StartDate:    startDate,
		EndDate:      endDate,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"activities": activities,
		"total":      len(activities),
	})
}

// Get returns one activity the user owns.
func (h *ActivitiesHandler) Get(c *gin.Context) {
	activity, err := h.activities.Get(c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}

// Create logs a manual activity.
func (h *ActivitiesHandler) Create(c *gin.Context) {
	var req services.ActivityCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	activity, err := h.activities.Create(middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, activity)
}

type activityUpdateRequest struct {
	ActivityName *string `json:"activity_name"`
	ActivityData *string `json:"activity_data"`
}

// Update patches the editable fields of an activity.
func (h *ActivitiesHandler) Update(c *gin.Context) {
	var req activityUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	activity, err := h.activities.Update(c.Param("id"), middleware.UserID(c), store.ActivityPatch{
		ActivityName: req.ActivityName,
		ActivityData: req.ActivityData,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}

// Delete removes an activity.
func (h *ActivitiesHandler) Delete(c *gin.Context) {
	if err := h.activities.Delete(c.Param("id"), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Activity deleted",
	})
}

// Stats returns the aggregated summary over an optional date range.
func (h *ActivitiesHandler) Stats(c *gin.Context) {
	startDate, err := parseTimeQuery(c, "start_date")
	if err != nil {
		respondBindError(c, err)
		return
	}
	endDate, err := parseTimeQuery(c, "end_date")
	if err != nil {
		respondBindError(c, err)
		return
	}

	stats, err := h.activities.Stats(middleware.UserID(c), startDate, endDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
