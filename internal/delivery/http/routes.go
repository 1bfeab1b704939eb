package http

import (
	"github.com/gin-gonic/gin"
	"github.com/smartshop/agent/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/search", handler.Search)
		v1.GET("/session", handler.GetSession)

		selection := v1.Group("/selection")
		{
			selection.POST("/:productId/toggle", handler.ToggleSelection)
			selection.DELETE("", handler.ClearSelection)
		}

		v1.POST("/saved/toggle", handler.ToggleSaved)
		v1.POST("/alerts/:productId/toggle", handler.ToggleAlert)
		v1.POST("/compare", handler.Compare)

		tryon := v1.Group("/tryon")
		{
			tryon.GET("", handler.TryOnState)
			tryon.POST("/start", handler.TryOnStart)
			tryon.POST("/frame", handler.TryOnFrame)
			tryon.POST("/capture", handler.TryOnCapture)
			tryon.POST("/retake", handler.TryOnRetake)
			tryon.POST("/close", handler.TryOnClose)
		}
	}

	return router
}
