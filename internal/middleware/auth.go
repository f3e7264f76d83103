package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medinfo/backend/internal/service"
)

// SessionCookieName is the cookie carrying the session token for browser
// clients. API clients may use a Bearer header instead.
const SessionCookieName = "session"

// Context keys set by the auth middleware.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserName  = "user_name"
)

// sessionToken extracts the token from the Authorization header or the
// session cookie, header taking precedence.
func sessionToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie
	}
	return ""
}

// RequireAuth rejects requests without a valid session token.
func RequireAuth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID.String())
		c.Set(ContextUserEmail, claims.Email)
		c.Set(ContextUserName, claims.Name)
		c.Next()
	}
}

// OptionalAuth sets the user context when a valid token is present but never
// rejects. Used by pages that render for both guests and users.
func OptionalAuth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := sessionToken(c); token != "" {
			if claims, err := auth.ValidateToken(token); err == nil {
				c.Set(ContextUserID, claims.UserID.String())
				c.Set(ContextUserEmail, claims.Email)
				c.Set(ContextUserName, claims.Name)
			}
		}
		c.Next()
	}
}

// UserEmail returns the authenticated user's email, empty for guests.
func UserEmail(c *gin.Context) string {
	email, _ := c.Get(ContextUserEmail)
	if s, ok := email.(string); ok {
		return s
	}
	return ""
}
