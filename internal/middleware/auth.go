package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/analyticsPapy/trainlytics-app/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ContextUserID is the gin context key holding the authenticated user id.
	ContextUserID = "user_id"
	// ContextUserEmail is the gin context key holding the authenticated email.
	ContextUserEmail = "user_email"
)

// RequireAuth validates the Authorization bearer JWT (HS256, shared
// secret with the identity issuer) and puts the subject into the gin
// context. Identity lives with the external issuer; the local user row
// is only a mirror, created on first sight.
func RequireAuth(jwtSecret string, users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c, "bearer token required")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				unauthorized(c, "token expired")
				return
			}
			unauthorized(c, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			unauthorized(c, "invalid token")
			return
		}

		userID, _ := claims["sub"].(string)
		if userID == "" {
			unauthorized(c, "token has no subject")
			return
		}
		email, _ := claims["email"].(string)

		if users != nil {
			if _, err := users.Ensure(userID, email); err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":  "internal_error",
					"detail": "failed to provision user",
				})
				return
			}
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextUserEmail, email)
		c.Next()
	}
}

// UserID returns the authenticated user id set by RequireAuth.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// UserEmail returns the authenticated email set by RequireAuth.
func UserEmail(c *gin.Context) string {
	return c.GetString(ContextUserEmail)
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":  "unauthorized",
		"detail": detail,
	})
}
