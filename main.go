package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"data-collection-system/api/cron"
	routes "data-collection-system/api/http"
	"data-collection-system/internal/cache"
	"data-collection-system/internal/repository"
	"data-collection-system/internal/service"
	"data-collection-system/pkg/config"
	"data-collection-system/pkg/database"
	"data-collection-system/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger.Init(cfg.Log)

	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatalf("failed to open database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Errorf("failed to close database: %v", err)
		}
	}()

	mirror, err := cache.Open(cfg.Redis)
	if err != nil {
		logger.Fatalf("failed to open redis mirror: %v", err)
	}
	defer mirror.Close()

	repo := repository.New(db)
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repo.Migrate(migrateCtx); err != nil {
		migrateCancel()
		logger.Fatalf("failed to migrate schema: %v", err)
	}
	migrateCancel()

	svc := service.New(cfg, repo, mirror)

	var refresher *cron.Runner
	if cfg.Crawler.ScheduledRefresh.Enabled {
		refresher = cron.New(cfg.Crawler.ScheduledRefresh, svc)
		if err := refresher.Start(); err != nil {
			logger.Fatalf("failed to start scheduled refresh: %v", err)
		}
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.SetupRoutes(svc)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if refresher != nil {
		refresher.Stop()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}

	logger.Info("server exited")
}
