// File: screenlink/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"screenlink/config"
	"screenlink/cron"
	"screenlink/handlers"
	"screenlink/middleware"
	"screenlink/routes"
	"screenlink/services/mirror"
	"screenlink/services/registry"
	"screenlink/services/relay"
	"screenlink/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	// Durable mirror: best effort, never authoritative.
	var m mirror.Mirror = mirror.Noop{}
	if config.AppConfig.MirrorEnabled {
		utils.InitMirrorClient()
		m = mirror.NewRedis(utils.GetMirrorClient())
	}

	store := registry.NewStore(registry.Options{
		Mirror:    m,
		Logger:    logger,
		Freshness: config.AppConfig.DeviceFreshness(),
	})
	preloadCtx, cancelPreload := context.WithTimeout(context.Background(), 5*time.Second)
	store.Preload(preloadCtx)
	cancelPreload()

	hub := handlers.NewHub(logger)
	rly := relay.New(store, hub, logger)
	handler := handlers.NewHandler(store, rly, hub, m, logger)

	// Background reaper, stopped deterministically on shutdown.
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	reaper := cron.NewReaper(
		store,
		config.AppConfig.SweepInterval(),
		config.AppConfig.DeviceExpiry(),
		config.AppConfig.SessionExpiry(),
		logger,
	)
	go reaper.Run(reaperCtx)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	routes.RegisterRoutes(router, handler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	stopReaper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
