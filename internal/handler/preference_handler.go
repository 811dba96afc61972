package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/planner"
	"github.com/noah-isme/study-planner-api/pkg/response"
)

type preferenceService interface {
	Get(ctx context.Context, key string) (*models.Preference, error)
	Put(ctx context.Context, key string, req dto.PreferenceRequest) (*models.Preference, error)
	GetSleepSchedule(ctx context.Context) (planner.SleepSchedule, error)
	PutSleepSchedule(ctx context.Context, req dto.SleepScheduleRequest) (planner.SleepSchedule, error)
}

// PreferenceHandler exposes user preference endpoints.
type PreferenceHandler struct {
	service preferenceService
}

// NewPreferenceHandler constructs the handler.
func NewPreferenceHandler(service preferenceService) *PreferenceHandler {
	return &PreferenceHandler{service: service}
}

// GetSleepSchedule godoc
// @Summary Get sleep schedule
// @Description Falls back to 22:00/06:00 when nothing valid is stored.
// @Tags Preferences
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /preferences/sleep-schedule [get]
func (h *PreferenceHandler) GetSleepSchedule(c *gin.Context) {
	schedule, err := h.service.GetSleepSchedule(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, schedule)
}

// PutSleepSchedule godoc
// @Summary Update sleep schedule
// @Tags Preferences
// @Accept json
// @Produce json
// @Param payload body dto.SleepScheduleRequest true "Sleep schedule"
// @Success 200 {object} response.Envelope
// @Router /preferences/sleep-schedule [put]
func (h *PreferenceHandler) PutSleepSchedule(c *gin.Context) {
	var req dto.SleepScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid sleep schedule"))
		return
	}
	schedule, err := h.service.PutSleepSchedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, schedule)
}

// Get godoc
// @Summary Get preference by key
// @Tags Preferences
// @Produce json
// @Param key path string true "Preference key"
// @Success 200 {object} response.Envelope
// @Router /preferences/{key} [get]
func (h *PreferenceHandler) Get(c *gin.Context) {
	pref, err := h.service.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pref)
}

// Put godoc
// @Summary Store preference value
// @Tags Preferences
// @Accept json
// @Produce json
// @Param key path string true "Preference key"
// @Param payload body dto.PreferenceRequest true "Preference value"
// @Success 200 {object} response.Envelope
// @Router /preferences/{key} [put]
func (h *PreferenceHandler) Put(c *gin.Context) {
	var req dto.PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid preference payload"))
		return
	}
	pref, err := h.service.Put(c.Request.Context(), c.Param("key"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pref)
}
