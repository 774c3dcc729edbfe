package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/feedback-desk-api/api/swagger"
	"github.com/noah-isme/feedback-desk-api/pkg/config"
	"github.com/noah-isme/feedback-desk-api/pkg/logger"
)

// @title Feedback Desk API
// @version 1.0.0
// @description Collects user feedback and lets administrators review, resolve and export it
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	backend, err := openSlotBackend(cfg)
	if err != nil {
		logr.Fatal("failed to open slot backend", zap.String("backend", cfg.Slots.Backend), zap.Error(err))
	}
	defer backend.close() //nolint:errcheck

	app, err := newApplication(cfg, logr, backend.store, backend.ready)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Stopped explicitly after the HTTP drain so in-flight requests can still enqueue activity.
	app.activityQueue.Start(context.Background())
	go runExportCleanup(ctx, app.management, cfg.Exports.CleanupInterval, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("slots", cfg.Slots.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	app.activityQueue.Stop()
}
