package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/studyplan-backend/internal/planner"
	"github.com/stemsi/studyplan-backend/internal/response"
	"github.com/stemsi/studyplan-backend/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Create godoc
// POST /api/v1/sessions
// Starts a new planning session and returns the token addressing it.
func (h *SessionHandler) Create(c *gin.Context) {
	issued, err := h.sessionService.Start(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"token":      issued.Token,
		"session_id": issued.Session.ID,
		"expires_at": issued.Session.ExpiresAt,
		"view":       planner.BuildView(issued.Session.State),
	})
}
