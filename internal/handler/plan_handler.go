package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/studyplan-backend/internal/middleware"
	"github.com/stemsi/studyplan-backend/internal/model"
	"github.com/stemsi/studyplan-backend/internal/response"
	"github.com/stemsi/studyplan-backend/internal/service"
	"github.com/stemsi/studyplan-backend/internal/validator"
)

type PlanHandler struct {
	planService *service.PlanService
}

func NewPlanHandler(planService *service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// GetView godoc
// GET /api/v1/plan
func (h *PlanHandler) GetView(c *gin.Context) {
	view, err := h.planService.View(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		failAction(c, err, nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"view": view})
}

// GetTable godoc
// GET /api/v1/plan/table
func (h *PlanHandler) GetTable(c *gin.Context) {
	table, err := h.planService.Table(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		failAction(c, err, nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"table": table})
}

// SavePeriod godoc
// POST /api/v1/plan/period
func (h *PlanHandler) SavePeriod(c *gin.Context) {
	var req model.SavePeriodRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, view, err := h.planService.SavePeriod(c.Request.Context(), middleware.GetSessionID(c), &req)
	if err != nil {
		failAction(c, err, view)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": res, "view": view})
}

// ResetPeriod godoc
// DELETE /api/v1/plan/period
func (h *PlanHandler) ResetPeriod(c *gin.Context) {
	view, err := h.planService.ResetPeriod(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		failAction(c, err, view)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"view": view})
}

// SaveSubject godoc
// POST /api/v1/plan/subjects
func (h *PlanHandler) SaveSubject(c *gin.Context) {
	var req model.SaveSubjectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, view, err := h.planService.SaveSubject(c.Request.Context(), middleware.GetSessionID(c), &req)
	if err != nil {
		failActionAs(c, err, view, classifySubject)
		return
	}

	status := http.StatusCreated
	if res.Edited {
		status = http.StatusOK
	}
	response.Success(c, status, gin.H{"result": res, "view": view})
}

// RequestResults godoc
// POST /api/v1/plan/results
func (h *PlanHandler) RequestResults(c *gin.Context) {
	view, err := h.planService.RequestResults(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		failAction(c, err, view)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"view": view})
}

// EnterEditMode godoc
// POST /api/v1/plan/edit
func (h *PlanHandler) EnterEditMode(c *gin.Context) {
	view, err := h.planService.EnterEditMode(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		failAction(c, err, view)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"view": view})
}

// SelectEditTarget godoc
// PUT /api/v1/plan/edit/:index
func (h *PlanHandler) SelectEditTarget(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	defaults, view, err := h.planService.SelectEditTarget(c.Request.Context(), middleware.GetSessionID(c), index)
	if err != nil {
		failAction(c, err, view)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"form": defaults, "view": view})
}
