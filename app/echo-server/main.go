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

	httpmetrics "vidShare/app/echo-server/metrics"
	"vidShare/app/echo-server/router"
	"vidShare/internal/middleware"
	"vidShare/internal/rest"
	"vidShare/internal/wiring"
	"vidShare/pkg/config"
	"vidShare/pkg/logger"
	"vidShare/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting vidShare", "version", cfg.App.Version)

	metrics.Init()
	httpmetrics.Init()

	app, cleanup, err := wiring.Build(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to initialise services", "error", err)
	}
	defer cleanup()

	// Init handler
	recoHandler := rest.NewRecommendationHandler(app.Recommender, app.Tracker)
	searchHandler := rest.NewSearchHandler(app.Embeddings)
	adminHandler := rest.NewAdminHandler(app.ConfigRepo, app.Settings, app.Scheduler)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.TraceID())
	e.Use(httpmetrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.HeaderRequestID},
	}))

	// Auth middleware
	authRequired := middleware.AuthMiddleware(cfg.JWT.SecretKey)
	optionalAuth := middleware.OptionalAuth(cfg.JWT.SecretKey)
	adminOnly := middleware.AdminOnly()

	// Setup routes
	router.SetupHealthRoutes(e, promhttp.Handler())
	api := e.Group("/api/v1")
	router.SetupRecommendationRoutes(api, recoHandler, optionalAuth, authRequired)
	router.SetupSearchRoutes(api, searchHandler, authRequired, adminOnly)
	router.SetupAdminRoutes(api, adminHandler, authRequired, adminOnly)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
