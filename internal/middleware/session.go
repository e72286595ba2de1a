package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/studyplan-backend/internal/response"
	"github.com/stemsi/studyplan-backend/internal/service"
)

// ContextKeySessionID is the Gin context key for the authenticated session ID.
const ContextKeySessionID = "session_id"

// RequirePlanSession validates the session token from the Authorization
// header, falling back to the ?token= query parameter for WebSocket
// upgrades, which cannot send headers from browsers.
func RequirePlanSession(sessionService *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c.GetHeader("Authorization"))
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := sessionService.ValidateToken(tokenStr)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenExpired)
				return
			}
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(ContextKeySessionID, claims.ID)
		c.Next()
	}
}

// GetSessionID retrieves the session ID set by RequirePlanSession.
func GetSessionID(c *gin.Context) string {
	id, _ := c.Get(ContextKeySessionID)
	s, _ := id.(string)
	return s
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
