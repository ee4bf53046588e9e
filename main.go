package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookify/config"
	"bookify/handlers"
	"bookify/integrations/backend"
	"bookify/routes"
	"bookify/services/reservation"
	"bookify/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	utils.InitCartCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// Backend client serves providers, pricing, checkout and phone
	// verification.
	backendClient := backend.NewClient(
		config.AppConfig.BackendURL,
		config.AppConfig.BackendAPIKey,
		time.Duration(config.AppConfig.BackendTimeout)*time.Second,
		logger,
	)

	cartStore := reservation.NewRedisCartStore(utils.GetCartCacheClient(), 30*24*time.Hour)

	handlers.Sessions = reservation.NewSessionManager(reservation.SessionConfig{
		Source:          backendClient,
		Quotes:          backendClient,
		Checkouts:       backendClient,
		Phones:          backendClient,
		Store:           cartStore,
		DefaultTimezone: config.AppConfig.DefaultTimezone,
		TTL:             time.Duration(config.AppConfig.SessionTTLMin) * time.Minute,
		Logger:          logger,
	})
	defer handlers.Sessions.Close()

	routes.SetupRoutes(router)

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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
