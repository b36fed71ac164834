package api

import (
	"github.com/gin-gonic/gin"

	"github.com/versecraft/melodia-api/internal/api/handlers"
	apimiddleware "github.com/versecraft/melodia-api/internal/api/middleware"
	"github.com/versecraft/melodia-api/internal/config"
)

func SetupRouter(cfg *config.Config, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking())

	// Health check
	healthHandler := handlers.NewHealthHandler(cfg, version)
	router.GET("/health", healthHandler.HealthCheck)

	// API routes v1
	v1 := router.Group("/api/v1")
	{
		melodyHandler := handlers.NewMelodyHandler(cfg)
		v1.POST("/melodies", melodyHandler.Generate)
	}

	return router
}
