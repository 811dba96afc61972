package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/pkg/response"
)

type scheduleBlockService interface {
	List(ctx context.Context, filter models.ScheduleBlockFilter) ([]models.ScheduleBlock, error)
	Create(ctx context.Context, req dto.CreateScheduleBlockRequest) (*models.ScheduleBlock, error)
	BulkCreate(ctx context.Context, req dto.BulkCreateScheduleBlocksRequest) ([]models.ScheduleBlock, error)
	Update(ctx context.Context, id string, req dto.UpdateScheduleBlockRequest) (*models.ScheduleBlock, error)
	ToggleCompleted(ctx context.Context, id string) (*models.ScheduleBlock, error)
	Delete(ctx context.Context, id string) error
	ClearGenerated(ctx context.Context) (int64, error)
}

// ScheduleBlockHandler exposes calendar block endpoints.
type ScheduleBlockHandler struct {
	service scheduleBlockService
}

// NewScheduleBlockHandler constructs a schedule block handler.
func NewScheduleBlockHandler(service scheduleBlockService) *ScheduleBlockHandler {
	return &ScheduleBlockHandler{service: service}
}

// List godoc
// @Summary List schedule blocks
// @Tags ScheduleBlocks
// @Produce json
// @Param from query string false "First day (YYYY-MM-DD, inclusive)"
// @Param to query string false "Last day (YYYY-MM-DD, inclusive)"
// @Success 200 {object} response.Envelope
// @Router /schedule-blocks [get]
func (h *ScheduleBlockHandler) List(c *gin.Context) {
	from, err := queryDate(c, "from")
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		response.Error(c, err)
		return
	}
	blocks, err := h.service.List(c.Request.Context(), models.ScheduleBlockFilter{From: from, To: to})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, blocks)
}

// Create godoc
// @Summary Create schedule block
// @Tags ScheduleBlocks
// @Accept json
// @Produce json
// @Param payload body dto.CreateScheduleBlockRequest true "Block payload"
// @Success 201 {object} response.Envelope
// @Router /schedule-blocks [post]
func (h *ScheduleBlockHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid schedule block payload"))
		return
	}
	block, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}

// BulkCreate godoc
// @Summary Create many schedule blocks atomically
// @Tags ScheduleBlocks
// @Accept json
// @Produce json
// @Param payload body dto.BulkCreateScheduleBlocksRequest true "Blocks payload"
// @Success 201 {object} response.Envelope
// @Router /schedule-blocks/bulk [post]
func (h *ScheduleBlockHandler) BulkCreate(c *gin.Context) {
	var req dto.BulkCreateScheduleBlocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid schedule block payload"))
		return
	}
	blocks, err := h.service.BulkCreate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, blocks)
}

// Update godoc
// @Summary Update schedule block
// @Description Locked blocks can only be moved when isLocked=false is sent in the same request.
// @Tags ScheduleBlocks
// @Accept json
// @Produce json
// @Param id path string true "Block ID"
// @Param payload body dto.UpdateScheduleBlockRequest true "Block payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule-blocks/{id} [patch]
func (h *ScheduleBlockHandler) Update(c *gin.Context) {
	var req dto.UpdateScheduleBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid schedule block payload"))
		return
	}
	block, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, block)
}

// Toggle godoc
// @Summary Flip block completion
// @Tags ScheduleBlocks
// @Produce json
// @Param id path string true "Block ID"
// @Success 200 {object} response.Envelope
// @Router /schedule-blocks/{id}/toggle [patch]
func (h *ScheduleBlockHandler) Toggle(c *gin.Context) {
	block, err := h.service.ToggleCompleted(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, block)
}

// Delete godoc
// @Summary Delete schedule block
// @Tags ScheduleBlocks
// @Param id path string true "Block ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /schedule-blocks/{id} [delete]
func (h *ScheduleBlockHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClearGenerated godoc
// @Summary Remove unlocked generated blocks
// @Tags ScheduleBlocks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule-blocks/generated [delete]
func (h *ScheduleBlockHandler) ClearGenerated(c *gin.Context) {
	removed, err := h.service.ClearGenerated(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"removed": removed})
}
