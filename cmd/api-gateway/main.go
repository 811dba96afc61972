package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/study-planner-api/api/swagger"
	"github.com/noah-isme/study-planner-api/internal/middleware"
	"github.com/noah-isme/study-planner-api/internal/repository"
	"github.com/noah-isme/study-planner-api/internal/service"
	"github.com/noah-isme/study-planner-api/pkg/cache"
	"github.com/noah-isme/study-planner-api/pkg/config"
	"github.com/noah-isme/study-planner-api/pkg/database"
	"github.com/noah-isme/study-planner-api/pkg/export"
	"github.com/noah-isme/study-planner-api/pkg/jobs"
	"github.com/noah-isme/study-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/study-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/study-planner-api/pkg/middleware/requestid"
	"github.com/noah-isme/study-planner-api/pkg/storage"
)

// @title Study Planner API
// @version 1.0.0
// @description Courses, assignments, fixed commitments and a greedy study plan generator.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Analytics.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, analytics cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	validate := validator.New()
	location := cfg.Planner.Location()
	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(
		cacheRepo,
		metricsSvc,
		cfg.Analytics.CacheTTL,
		logr,
		cfg.Analytics.CacheEnabled && redisClient != nil,
	)

	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	blockRepo := repository.NewScheduleBlockRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	preferenceSvc := service.NewPreferenceService(preferenceRepo, validate, logr)
	svcs := services{
		courses:     service.NewCourseService(courseRepo, cacheSvc, validate, logr),
		assignments: service.NewAssignmentService(assignmentRepo, courseRepo, cacheSvc, validate, logr),
		activities:  service.NewActivityService(activityRepo, validate, logr),
		blocks:      service.NewScheduleBlockService(blockRepo, db, cacheSvc, validate, logr),
		preferences: preferenceSvc,
		studyPlan: service.NewStudyPlanService(
			assignmentRepo, activityRepo, blockRepo, preferenceSvc, db, cacheSvc, metricsSvc, validate, logr,
			service.StudyPlanConfig{Location: location},
		),
		analytics:       service.NewAnalyticsService(assignmentRepo, blockRepo, cacheSvc, metricsSvc, location, logr),
		recommendations: service.NewRecommendationService(assignmentRepo, blockRepo, location, logr),
		metrics:         metricsSvc,
	}
	if redisClient != nil {
		svcs.cache = cacheRepo
	}

	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		fileStore, storageErr := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if storageErr != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(storageErr))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exporter := service.NewExportService(
			blockRepo,
			fileStore,
			signer,
			service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.SignedURLTTL},
			logr,
			export.NewCSVExporter(),
			export.NewPDFExporter(),
		)
		worker := service.NewExportWorker(exportJobRepo, exporter, cfg.Exports.WorkerRetries, logr)
		exportQueue = jobs.NewQueue(service.ExportJobType, worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			BufferSize: 64,
			MaxRetries: cfg.Exports.WorkerRetries,
			RetryDelay: 2 * time.Second,
			Logger:     logr,
			Observer: func(_ jobs.Job, err error, took time.Duration) {
				metricsSvc.ObserveExportJob(err, took)
			},
		})
		exportQueue.Start(ctx)
		defer exportQueue.Stop()

		svcs.exports = service.NewExportJobService(exportJobRepo, exportQueue, exporter, validate, logr, service.ExportJobConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: time.Hour,
		})
		svcs.exports.RecoverPendingJobs(ctx)
		go svcs.exports.StartCleanup(ctx)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/metrics"))
	r.Use(middleware.WithResponseMeta())

	registerRoutes(r, cfg, svcs, db)

	addr := cfg.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "exports", cfg.Exports.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
