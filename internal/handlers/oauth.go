package handlers

import (
	"net/http"

	"github.com/analyticsPapy/trainlytics-app/internal/middleware"
	"github.com/analyticsPapy/trainlytics-app/internal/services"

	"github.com/gin-gonic/gin"
)

// OAuthHandler drives the connect-a-provider flow over HTTP.
type OAuthHandler struct {
	oauth *services.OAuthService
}

func NewOAuthHandler(oauth *services.OAuthService) *OAuthHandler {
	return &OAuthHandler{oauth: oauth}
}

type oauthInitRequest struct {
	Provider    string `json:"provider"     binding:"required"`
	RedirectURI string `json:"redirect_uri"`
}

// Init starts an authorization flow and returns the consent URL the
// frontend should send the user to.
func (h *OAuthHandler) Init(c *gin.Context) {
	var req oauthInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.oauth.Init(middleware.UserID(c), req.Provider, req.RedirectURI)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Callback is where the provider sends the user after consent. The
// state parameter carries the user identity, so the route is public.
// A stored redirect URI sends the browser back to the frontend;
// otherwise the result is plain JSON.
func (h *OAuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	provider := c.Query("provider")

	result, err := h.oauth.HandleCallback(c.Request.Context(), code, state, provider)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Request.Method == http.MethodGet && result.RedirectURI != "" {
		c.Redirect(http.StatusFound, result.RedirectURI+"?provider="+result.Provider+"&status=connected")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Successfully connected " + result.Provider,
		"connection": result.Connection,
	})
}
