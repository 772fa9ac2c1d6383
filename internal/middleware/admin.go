// Package middleware holds the gin middleware shared by the service routes.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/auth"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
	log "github.com/sirupsen/logrus"
)

// SessionCookie carries the dashboard session
const SessionCookie = "admin_session"

// SessionToken returns the session from the cookie or a bearer header
func SessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAdmin rejects requests without a valid dashboard session
func RequireAdmin(sessions *auth.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sessions.Validate(SessionToken(c)); err != nil {
			log.WithFields(log.Fields{
				"path":  c.FullPath(),
				"ip":    c.ClientIP(),
				"error": err.Error(),
			}).Debug("Admin request rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Success: false,
				Error:   "Non autorisé",
			})
			return
		}
		c.Next()
	}
}
