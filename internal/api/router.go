package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/api/handlers"
	"github.com/vendio/dropship-core/internal/api/middleware"
	"github.com/vendio/dropship-core/internal/config"
	"github.com/vendio/dropship-core/internal/repository"
	"github.com/vendio/dropship-core/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, services *service.Services, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		// Public reads
		v1.GET("/suppliers", handlers.HandleListSuppliers(services, logger))
		v1.GET("/suppliers/:id", handlers.HandleGetSupplier(services, logger))

		// Admin routes
		admin := v1.Group("")
		admin.Use(middleware.AdminAuth(cfg.Security.AdminTokenHash, logger))
		{
			admin.POST("/suppliers", handlers.HandleRegisterSupplier(services, logger))
			admin.PATCH("/suppliers/:id", handlers.HandleUpdateSupplier(services, logger))
			admin.POST("/suppliers/:id/suspend", handlers.HandleSuspendSupplier(services, logger))

			admin.GET("/relations", handlers.HandleListRelations(services, logger))
			admin.POST("/relations", handlers.HandleLinkRelation(services, logger))
			admin.DELETE("/relations/:id", handlers.HandleUnlinkRelation(services, logger))

			admin.GET("/recommendations", handlers.HandleListRecommendations(services, logger))
			admin.POST("/recommendations", handlers.HandleCreateRecommendation(services, logger))
			admin.GET("/recommendations/:id", handlers.HandleGetRecommendation(services, logger))
			admin.PUT("/recommendations/:id", handlers.HandleRecommendationAction(services, logger))
			admin.DELETE("/recommendations/:id", handlers.HandleDeleteRecommendation(services, logger))

			admin.POST("/dropship/orders", handlers.HandlePlaceOrder(services, logger))
			admin.GET("/dropship/orders/:id", handlers.HandleGetDropshipOrder(services, logger))
			admin.POST("/dropship/orders/:id/cancel", handlers.HandleCancelDropshipOrder(services, logger))
			admin.POST("/dropship/track-orders", handlers.HandleTrackOrders(services, logger))
			admin.GET("/dropship/failed", handlers.HandleListFailedOrders(services, logger))

			admin.GET("/market-data", handlers.HandleGetMarketData(repos, logger))
			admin.PUT("/market-data", handlers.HandlePutMarketData(repos, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
