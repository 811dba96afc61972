package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/study-planner-api/internal/handler"
	"github.com/noah-isme/study-planner-api/internal/repository"
	"github.com/noah-isme/study-planner-api/internal/service"
	"github.com/noah-isme/study-planner-api/pkg/config"
)

type services struct {
	courses         *service.CourseService
	assignments     *service.AssignmentService
	activities      *service.ActivityService
	blocks          *service.ScheduleBlockService
	preferences     *service.PreferenceService
	studyPlan       *service.StudyPlanService
	analytics       *service.AnalyticsService
	recommendations *service.RecommendationService
	exports         *service.ExportJobService
	metrics         *service.MetricsService
	// cache is nil when Redis is not configured
	cache *repository.CacheRepository
}

func registerRoutes(r *gin.Engine, cfg *config.Config, svcs services, db *sqlx.DB) {
	metricsHandler := handler.NewMetricsHandler(svcs.metrics, db)
	if svcs.cache != nil {
		metricsHandler = metricsHandler.WithCache(svcs.cache)
	}
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	courses := handler.NewCourseHandler(svcs.courses)
	api.GET("/courses", courses.List)
	api.POST("/courses", courses.Create)
	api.GET("/courses/:id", courses.Get)
	api.PATCH("/courses/:id", courses.Update)
	api.DELETE("/courses/:id", courses.Delete)

	assignments := handler.NewAssignmentHandler(svcs.assignments)
	api.GET("/assignments", assignments.List)
	api.POST("/assignments", assignments.Create)
	api.GET("/assignments/:id", assignments.Get)
	api.PATCH("/assignments/:id", assignments.Update)
	api.PATCH("/assignments/:id/toggle", assignments.Toggle)
	api.DELETE("/assignments/:id", assignments.Delete)

	activities := handler.NewActivityHandler(svcs.activities)
	api.GET("/activities", activities.List)
	api.POST("/activities", activities.Create)
	api.GET("/activities/:id", activities.Get)
	api.PATCH("/activities/:id", activities.Update)
	api.DELETE("/activities/:id", activities.Delete)

	blocks := handler.NewScheduleBlockHandler(svcs.blocks)
	api.GET("/schedule-blocks", blocks.List)
	api.POST("/schedule-blocks", blocks.Create)
	api.POST("/schedule-blocks/bulk", blocks.BulkCreate)
	api.DELETE("/schedule-blocks/generated", blocks.ClearGenerated)
	api.PATCH("/schedule-blocks/:id", blocks.Update)
	api.PATCH("/schedule-blocks/:id/toggle", blocks.Toggle)
	api.DELETE("/schedule-blocks/:id", blocks.Delete)

	if svcs.exports != nil {
		exports := handler.NewExportHandler(svcs.exports)
		api.POST("/schedule-blocks/exports", exports.Create)
		api.GET("/schedule-blocks/exports/:id", exports.Status)
		api.GET("/exports/download", exports.Download)
	}

	studyPlan := handler.NewStudyPlanHandler(svcs.studyPlan)
	api.POST("/study-plan/generate", studyPlan.Generate)
	api.POST("/study-plan/preview", studyPlan.Preview)

	preferences := handler.NewPreferenceHandler(svcs.preferences)
	api.GET("/preferences/sleep-schedule", preferences.GetSleepSchedule)
	api.PUT("/preferences/sleep-schedule", preferences.PutSleepSchedule)
	api.GET("/preferences/:key", preferences.Get)
	api.PUT("/preferences/:key", preferences.Put)

	analytics := handler.NewAnalyticsHandler(svcs.analytics, svcs.recommendations)
	api.GET("/analytics/summary", analytics.Summary)
	api.GET("/analytics/system", analytics.System)
	api.GET("/recommendations", analytics.Recommendations)
}
