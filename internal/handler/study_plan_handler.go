package handler

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/pkg/response"
)

type studyPlanService interface {
	Generate(ctx context.Context, req dto.GenerateStudyPlanRequest) (*dto.StudyPlanResponse, error)
	Preview(ctx context.Context, req dto.GenerateStudyPlanRequest) (*dto.StudyPlanResponse, error)
}

// StudyPlanHandler exposes the study plan generator.
type StudyPlanHandler struct {
	service studyPlanService
}

// NewStudyPlanHandler constructs the handler.
func NewStudyPlanHandler(service studyPlanService) *StudyPlanHandler {
	return &StudyPlanHandler{service: service}
}

// Generate godoc
// @Summary Generate and persist a study plan
// @Description Replaces unlocked generated blocks with a freshly computed plan.
// @Tags StudyPlan
// @Accept json
// @Produce json
// @Param payload body dto.GenerateStudyPlanRequest false "Generator options"
// @Success 200 {object} response.Envelope
// @Router /study-plan/generate [post]
func (h *StudyPlanHandler) Generate(c *gin.Context) {
	req, ok := bindStudyPlanRequest(c)
	if !ok {
		return
	}
	plan, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plan)
}

// Preview godoc
// @Summary Preview a study plan without saving
// @Tags StudyPlan
// @Accept json
// @Produce json
// @Param payload body dto.GenerateStudyPlanRequest false "Generator options"
// @Success 200 {object} response.Envelope
// @Router /study-plan/preview [post]
func (h *StudyPlanHandler) Preview(c *gin.Context) {
	req, ok := bindStudyPlanRequest(c)
	if !ok {
		return
	}
	plan, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plan)
}

// bindStudyPlanRequest accepts an empty body as "all defaults".
func bindStudyPlanRequest(c *gin.Context) (dto.GenerateStudyPlanRequest, bool) {
	var req dto.GenerateStudyPlanRequest
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, bindError(err, "invalid study plan options"))
		return req, false
	}
	return req, true
}
