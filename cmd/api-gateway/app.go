package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/feedback-desk-api/internal/handler"
	"github.com/noah-isme/feedback-desk-api/internal/middleware"
	"github.com/noah-isme/feedback-desk-api/internal/models"
	"github.com/noah-isme/feedback-desk-api/internal/repository"
	"github.com/noah-isme/feedback-desk-api/internal/service"
	"github.com/noah-isme/feedback-desk-api/pkg/config"
	"github.com/noah-isme/feedback-desk-api/pkg/jobs"
	"github.com/noah-isme/feedback-desk-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/feedback-desk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/feedback-desk-api/pkg/middleware/requestid"
	"github.com/noah-isme/feedback-desk-api/pkg/storage"
)

// application holds the wired router and the background pieces main has to drive.
type application struct {
	router        *gin.Engine
	activityQueue *jobs.Queue
	management    *service.FeedbackManagementService
}

func newApplication(cfg *config.Config, logr *zap.Logger, slots repository.SlotStore, ready handler.ReadinessCheck) (*application, error) {
	metrics := service.NewMetricsService()
	slots = repository.WithSlotMetrics(slots, cfg.Slots.Backend, metrics)
	validate := validator.New()

	feedbackStore := repository.NewFeedbackStore(slots, cfg.Feedback.SlotKey, logr)
	profileRepo := repository.NewProfileRepository(slots)
	activityRepo := repository.NewActivityRepository(slots, cfg.Activity.SlotKey, cfg.Activity.MaxEntries, logr)

	activitySvc := service.NewActivityService(activityRepo, validate, logr)
	activityQueue := jobs.NewQueue("activity", activitySvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Activity.WorkerConcurrency,
		MaxRetries: cfg.Activity.WorkerRetries,
		Logger:     logr,
	})
	activitySvc.UseQueue(activityQueue)

	accounts, err := service.HashDemoAccounts([]service.DemoAccount{
		{Email: cfg.Auth.AdminEmail, Password: cfg.Auth.AdminPassword, FullName: cfg.Auth.AdminName, Role: models.RoleAdmin},
		{Email: cfg.Auth.UserEmail, Password: cfg.Auth.UserPassword, FullName: cfg.Auth.UserName, Role: models.RoleUser},
	}, 0)
	if err != nil {
		return nil, err
	}
	authSvc := service.NewAuthService(accounts, activitySvc, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	profileSvc := service.NewProfileService(profileRepo, activitySvc, metrics, validate, logr, service.ProfileCacheConfig{
		Size: cfg.Profiles.CacheSize,
		TTL:  cfg.Profiles.CacheTTL,
	})

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, err
	}
	secret := cfg.Exports.SignedURLSecret
	if secret == "" {
		secret = cfg.JWT.Secret
	}
	signer := storage.NewSignedURLSigner(secret, cfg.Exports.SignedURLTTL)

	submissionSvc := service.NewFeedbackSubmissionService(feedbackStore, profileSvc, activitySvc, metrics, logr, service.FeedbackSubmissionConfig{
		SimulatedLatency: cfg.Feedback.SimulatedLatency,
	})
	managementSvc := service.NewFeedbackManagementService(feedbackStore, activitySvc, metrics, files, signer, logr, service.FeedbackManagementConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.ResultTTL,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	feedbackHandler := handler.NewFeedbackHandler(submissionSvc, managementSvc)
	exportHandler := handler.NewExportHandler(managementSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	checks := map[string]handler.ReadinessCheck{}
	if ready != nil {
		checks["slots"] = ready
	}
	metricsHandler := handler.NewMetricsHandler(metrics, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/exports/:token", exportHandler.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))
	secured.GET("/auth/me", authHandler.Me)
	secured.GET("/profile", profileHandler.Get)
	secured.PUT("/profile", profileHandler.Update)
	secured.GET("/feedback/form", feedbackHandler.Form)
	secured.POST("/feedback", feedbackHandler.Submit)

	admin := secured.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/feedback", feedbackHandler.List)
	admin.GET("/feedback/statistics", feedbackHandler.Statistics)
	admin.GET("/feedback/export", feedbackHandler.Export)
	admin.POST("/feedback/exports", feedbackHandler.Publish)
	admin.GET("/feedback/:id", feedbackHandler.Get)
	admin.PATCH("/feedback/:id/status", feedbackHandler.UpdateStatus)
	admin.GET("/activity", activityHandler.List)
	admin.DELETE("/activity/:id", activityHandler.Delete)
	admin.DELETE("/activity", activityHandler.Clear)
	admin.GET("/metrics/summary", metricsHandler.Summary)

	return &application{router: r, activityQueue: activityQueue, management: managementSvc}, nil
}

// runExportCleanup removes expired export artifacts every interval until ctx ends.
func runExportCleanup(ctx context.Context, svc *service.FeedbackManagementService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.CleanupExports(); err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
			}
		}
	}
}
