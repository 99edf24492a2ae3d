package handlers

import (
	"github.com/gin-gonic/gin"
	_ "github.com/oldfield/dashboard/docs"
	"github.com/oldfield/dashboard/internal/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter wires every HTTP route. adminToken guards /admin when non-empty.
func NewRouter(healthHandler *HealthHandler, ingestHandler *IngestHandler, adminToken string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	router.GET("/health", healthHandler.Liveness)
	router.GET("/system-health", healthHandler.List)
	router.GET("/system-health/table", healthHandler.Table)

	admin := router.Group("/admin", middleware.RequireAdminToken(adminToken))
	admin.POST("/ingest/finance", ingestHandler.IngestFinance)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}
