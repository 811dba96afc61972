package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-planner-api/internal/middleware"
	"github.com/noah-isme/study-planner-api/internal/models"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
	"github.com/noah-isme/study-planner-api/pkg/response"
)

type analyticsService interface {
	Summary(ctx context.Context) (*models.AnalyticsSummary, bool, error)
	SystemMetrics() models.AnalyticsSystemMetrics
}

type recommendationService interface {
	List(ctx context.Context) ([]models.Recommendation, error)
}

// AnalyticsHandler exposes dashboard-ready analytics endpoints.
type AnalyticsHandler struct {
	analytics       analyticsService
	recommendations recommendationService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics analyticsService, recommendations recommendationService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, recommendations: recommendations}
}

// Summary godoc
// @Summary Study analytics summary
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/summary [get]
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.analytics.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetProcessingTime(c, time.Since(start))
	response.JSON(c, http.StatusOK, summary, middleware.ExtractMeta(c))
}

// System godoc
// @Summary System instrumentation snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.OK(c, h.analytics.SystemMetrics())
}

// Recommendations godoc
// @Summary Study recommendations
// @Description Up to three tips ordered high, medium, low.
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /recommendations [get]
func (h *AnalyticsHandler) Recommendations(c *gin.Context) {
	if h.recommendations == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	recs, err := h.recommendations.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, recs)
}
