package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/studyplan-backend/internal/planner"
	"github.com/stemsi/studyplan-backend/internal/repository"
	"github.com/stemsi/studyplan-backend/internal/response"
)

// failAction reports a failed action. The view is attached when the action
// still changed the session, as a failed precondition does.
func failAction(c *gin.Context, err error, view *planner.View) {
	failActionAs(c, err, view, classify)
}

func failActionAs(c *gin.Context, err error, view *planner.View, classifier func(error) (int, response.ErrCode)) {
	status, code := classifier(err)
	detail := ""
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	} else {
		detail = err.Error()
	}
	if view != nil {
		response.FailWithData(c, status, code, detail, gin.H{"view": view})
		return
	}
	response.FailWithData(c, status, code, detail, nil)
}

func classify(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		return http.StatusNotFound, response.ErrSessionNotFound
	case errors.Is(err, planner.ErrPrecondition):
		return http.StatusConflict, response.ErrPrecondition
	case errors.Is(err, planner.ErrOrdering):
		return http.StatusUnprocessableEntity, response.ErrOrdering
	case errors.Is(err, planner.ErrFormat):
		return http.StatusUnprocessableEntity, response.ErrFormat
	case errors.Is(err, planner.ErrRange):
		return http.StatusUnprocessableEntity, response.ErrRange
	case errors.Is(err, planner.ErrSchedule):
		return http.StatusUnprocessableEntity, response.ErrSchedule
	case errors.Is(err, planner.ErrRequired):
		return http.StatusUnprocessableEntity, response.ErrRequiredFields
	case errors.Is(err, planner.ErrNoSubjects):
		return http.StatusConflict, response.ErrNoSubjects
	case errors.Is(err, planner.ErrNotEditing):
		return http.StatusConflict, response.ErrNotEditing
	case errors.Is(err, planner.ErrIndexOutOfRange):
		return http.StatusNotFound, response.ErrIndexOutOfRange
	case errors.Is(err, planner.ErrParse):
		return http.StatusUnprocessableEntity, response.ErrDateParse
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// classifySubject is classify for subject saves, where a parse failure is
// about page numbers rather than dates.
func classifySubject(err error) (int, response.ErrCode) {
	if errors.Is(err, planner.ErrParse) {
		return http.StatusUnprocessableEntity, response.ErrPageParse
	}
	return classify(err)
}
