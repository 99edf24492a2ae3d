package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oldfield/dashboard/config"
	"github.com/oldfield/dashboard/internal/cache"
	"github.com/oldfield/dashboard/internal/database"
	"github.com/oldfield/dashboard/internal/handlers"
	"github.com/oldfield/dashboard/internal/services"
	"github.com/oldfield/dashboard/internal/util"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// @title Household Dashboard API
// @version 1.0
// @description Finance ingestion and system health for the household dashboard.
// @BasePath /
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.ConfigureLogging(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	staleness, err := config.LoadThresholds(cfg.StalenessConfig)
	if err != nil {
		log.Fatalf("Failed to load staleness config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	st, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()

	// Initialize services
	thresholds := services.DefaultThresholds().Merge(staleness.ByDomain, staleness.Default)
	manifestCache := cache.NewManifestCache(st, cfg.HealthCacheTTL)
	healthSvc := services.NewHealthService(manifestCache, thresholds)
	ingestSvc := services.NewFinanceIngestService(st).OnCommit(manifestCache.Invalidate)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(healthSvc, util.DisplayLocation(cfg.DisplayTZ))
	ingestHandler := handlers.NewIngestHandler(ingestSvc)

	router := handlers.NewRouter(healthHandler, ingestHandler, cfg.AdminToken)
	if cfg.AdminToken == "" {
		log.Warn("ADMIN_TOKEN is not set; admin routes are unauthenticated")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		// Give outstanding requests 5 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Errorf("Server stopped with error: %v", err)
		return
	}
	log.Info("Server exited")
}
