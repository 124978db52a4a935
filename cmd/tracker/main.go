package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/flipforce/pack-tracker/internal/api"
	"github.com/flipforce/pack-tracker/internal/config"
	"github.com/flipforce/pack-tracker/internal/database"
	"github.com/flipforce/pack-tracker/internal/marketplace"
	"github.com/flipforce/pack-tracker/internal/services"
	"github.com/flipforce/pack-tracker/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	gin.SetMode(cfg.Server.Mode)

	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	logger.Info("database connected and migrated")

	st := store.New(db)
	client := marketplace.NewClient(marketplace.Options{
		BaseURL:        cfg.Marketplace.BaseURL,
		RequestTimeout: cfg.Marketplace.RequestTimeout,
		RequestPacing:  cfg.Marketplace.RequestPacing,
		HitFeedLimit:   cfg.Marketplace.HitFeedLimit,
	}, logger)
	engine := services.NewReconciliationEngine(client, st, cfg.Tracker, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run the engine with panic recovery: the loop restarts after a crash
	// and resumes cleanly from the persisted watermarks.
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.WithField("panic", r).Error("reconciliation engine panicked, restarting in 30 seconds")
					}
				}()
				engine.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return
			case <-time.After(30 * time.Second):
				logger.Info("reconciliation engine restarting after panic recovery")
			}
		}
	}()

	router := api.SetupRouter(st, engine)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("starting dashboard API")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("server forced to shutdown")
	}

	logger.Info("tracker exited")
}
