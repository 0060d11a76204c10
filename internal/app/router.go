package app

import (
	"vocab_srs_backend/internal/config"
	"vocab_srs_backend/internal/middleware"
	"vocab_srs_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.POST("/reviews", c.review.RecordReview)
		authGroup.GET("/cards/:id/preview", c.review.PreviewIntervals)

		authGroup.GET("/decks/:id/queue", c.session.DeckQueue)

		authGroup.POST("/sessions", c.session.Start)
		authGroup.GET("/sessions/:id", c.session.Get)
		authGroup.POST("/sessions/:id/actions", c.session.SubmitAction)
		authGroup.DELETE("/sessions/:id", c.session.End)

		authGroup.POST("/optimize", c.optimizer.RequestOptimization)
		authGroup.POST("/rebuild", c.optimizer.RequestCacheRebuild)
		authGroup.GET("/jobs", c.optimizer.ListJobs)
		authGroup.GET("/jobs/:id", c.optimizer.GetJob)

		authGroup.GET("/stats", c.stats.GetStats)
	}
}
