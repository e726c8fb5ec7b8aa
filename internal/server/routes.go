// Package server configures the HTTP server and routes.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/og-service/internal/config"
	"github.com/fleveque/og-service/internal/handler"
	"github.com/fleveque/og-service/internal/middleware"
)

// RegisterRoutes sets up all HTTP routes on the Gin engine.
// In Go, we pass dependencies explicitly — no DI container, no magic.
// Each handler gets exactly the dependencies it needs.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps *Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	ogHandler := handler.NewOGHandler(deps.OGService, cfg.Render.CacheMaxAge, logger)
	adminHandler := handler.NewAdminHandler(deps.RenderRepo, logger)

	// Public endpoints (no auth)
	r.GET("/healthz", healthHandler.Healthz)

	// Preview images are public: crawlers fetch them without credentials.
	og := r.Group("/og")
	og.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	og.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		og.GET("/request", ogHandler.GetRequestImage)
		// Routed only so the CORS middleware can answer preflight requests.
		og.OPTIONS("/request", func(c *gin.Context) {})
	}

	// Admin endpoints (separate auth with admin keys)
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AdminKeyAuth(cfg.Auth.AdminKeys))
	{
		admin.GET("/stats", adminHandler.Stats)
	}
}
