package handlers

import (
	"net/http"

	"github.com/analyticsPapy/trainlytics-app/internal/middleware"
	"github.com/analyticsPapy/trainlytics-app/internal/services"
	"github.com/analyticsPapy/trainlytics-app/internal/store"

	"github.com/gin-gonic/gin"
)

// UsersHandler serves the authenticated user's own profile.
type UsersHandler struct {
	users *services.UserService
}

func NewUsersHandler(users *services.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// Me returns the caller's profile.
func (h *UsersHandler) Me(c *gin.Context) {
	user, err := h.users.Get(middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type userUpdateRequest struct {
	FullName    *string `json:"full_name"`
	AvatarURL   *string `json:"avatar_url"`
	UserType    *string `json:"user_type"`
	Preferences *string `json:"preferences"`
}

// UpdateMe patches the caller's profile.
func (h *UsersHandler) UpdateMe(c *gin.Context) {
	var req userUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.users.Update(middleware.UserID(c), store.UserPatch{
		FullName:    req.FullName,
		AvatarURL:   req.AvatarURL,
		UserType:    req.UserType,
		Preferences: req.Preferences,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
