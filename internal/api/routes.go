package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(gin.Logger())

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/snapshot", handler.GetSnapshot)
		v1.GET("/runs", handler.ListRuns)

		packages := v1.Group("/packages")
		{
			packages.GET("", handler.ListPackages)
			packages.GET("/:name", handler.GetPackage)
			packages.GET("/:name/metrics", handler.GetPackageMetrics)
		}
	}

	return router
}
