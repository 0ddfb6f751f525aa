package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/middleware"
	"github.com/analyticsPapy/trainlytics-app/internal/services"
	"github.com/analyticsPapy/trainlytics-app/internal/store"

	"github.com/gin-gonic/gin"
)

// WorkoutsHandler serves planned training sessions.
type WorkoutsHandler struct {
	workouts *services.WorkoutService
}

func NewWorkoutsHandler(workouts *services.WorkoutService) *WorkoutsHandler {
	return &WorkoutsHandler{workouts: workouts}
}

// List returns a filtered page of the user's workouts.
func (h *WorkoutsHandler) List(c *gin.Context) {
	var completed *bool
	if raw, ok := c.GetQuery("completed"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondBindError(c, err)
			return
		}
		completed = &v
	}
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

	workouts, err := h.workouts.List(middleware.UserID(c), store.WorkoutFilter{
		Completed: completed,
		StartDate: startDate,
		EndDate:   endDate,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"workouts": workouts,
		"total":    len(workouts),
	})
}

// Get returns one workout the user owns.
func (h *WorkoutsHandler) Get(c *gin.Context) {
	workout, err := h.workouts.Get(c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, workout)
}

// Create plans a new workout.
func (h *WorkoutsHandler) Create(c *gin.Context) {
	var req services.WorkoutCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	workout, err := h.workouts.Create(middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, workout)
}

type workoutUpdateRequest struct {
	WorkoutName   *string    `json:"workout_name"`
	WorkoutType   *string    `json:"workout_type"`
	Description   *string    `json:"description"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	WorkoutData   *string    `json:"workout_data"`
}

// Update patches a workout.
func (h *WorkoutsHandler) Update(c *gin.Context) {
	var req workoutUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	workout, err := h.workouts.Update(c.Param("id"), middleware.UserID(c), store.WorkoutPatch{
		WorkoutName:   req.WorkoutName,
		WorkoutType:   req.WorkoutType,
		Description:   req.Description,
		ScheduledDate: req.ScheduledDate,
		WorkoutData:   req.WorkoutData,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, workout)
}

type workoutCompleteRequest struct {
	ActivityID *string `json:"activity_id"`
}

// Complete marks a workout done, optionally linking the activity that
// fulfilled it.
func (h *WorkoutsHandler) Complete(c *gin.Context) {
	var req workoutCompleteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	workout, err := h.workouts.Complete(c.Param("id"), middleware.UserID(c), req.ActivityID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, workout)
}

// Delete removes a workout.
func (h *WorkoutsHandler) Delete(c *gin.Context) {
	if err := h.workouts.Delete(c.Param("id"), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Workout deleted",
	})
}
