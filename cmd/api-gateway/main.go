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

	_ "github.com/noah-isme/seat-desk-api/api/swagger"
	"github.com/noah-isme/seat-desk-api/internal/app"
	"github.com/noah-isme/seat-desk-api/internal/router"
	"github.com/noah-isme/seat-desk-api/pkg/config"
	"github.com/noah-isme/seat-desk-api/pkg/logger"
	"github.com/noah-isme/seat-desk-api/pkg/scheduler"
)

// @title Seat Desk API
// @version 1.0.0
// @description Seat, slot and membership management for a self-study library
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	desk, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to wire services", zap.Error(err))
	}
	defer desk.Close()

	desk.Queue.Start(ctx)

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(ctx, logr.Named("scheduler"))
		if err := sched.Add("expiry-reminders", cfg.Scheduler.ReminderCron, func(ctx context.Context) error {
			_, err := desk.Reminders.EnqueueReminders(ctx)
			return err
		}); err != nil {
			logr.Fatal("invalid reminder schedule", zap.Error(err))
		}
		if cfg.Scheduler.CleanupEnabled {
			if err := sched.Add("inactive-cleanup", cfg.Scheduler.CleanupCron, func(ctx context.Context) error {
				_, err := desk.Seats.CleanupInactive(ctx, 0)
				return err
			}); err != nil {
				logr.Fatal("invalid cleanup schedule", zap.Error(err))
			}
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.New(desk),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "roster_backend", cfg.Roster.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
