package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-planner-api/internal/service"
)

const readyTimeout = 2 * time.Second

type pinger interface {
	PingContext(ctx context.Context) error
}

type cachePinger interface {
	Ping(ctx context.Context) error
}

// MetricsHandler serves the probe and scrape endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	db      pinger
	cache   cachePinger
}

func NewMetricsHandler(metrics *service.MetricsService, db pinger) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, db: db}
}

// WithCache adds the analytics cache to the readiness report. A failing
// cache degrades readiness but never fails it.
func (h *MetricsHandler) WithCache(cache cachePinger) *MetricsHandler {
	h.cache = cache
	return h
}

func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health is the liveness probe.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready is the readiness probe. Postgres must answer; Redis is reported
// when configured.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	checks := gin.H{}
	status, code := "ready", http.StatusOK

	switch {
	case h.db == nil:
		checks["database"] = "not configured"
		status, code = "unavailable", http.StatusServiceUnavailable
	default:
		if err := h.db.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			status, code = "unavailable", http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			checks["cache"] = err.Error()
			if code == http.StatusOK {
				status = "degraded"
			}
		} else {
			checks["cache"] = "ok"
		}
	}

	c.JSON(code, gin.H{"status": status, "checks": checks})
}
