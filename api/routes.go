package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Health and metrics (no auth required)
	s.router.GET("/health", gin.WrapF(s.health.HealthHandler))
	s.router.GET("/health/live", gin.WrapF(s.health.LivenessHandler))
	s.router.GET("/health/ready", gin.WrapF(s.health.ReadinessHandler))
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Event stream
	s.router.GET("/ws/events", s.handleWebSocket)

	api := s.router.Group("/api/v1")
	{
		// Price verification routes (public, authenticated by signature)
		prices := api.Group("/prices")
		{
			prices.POST("/check", s.handleCheckPrice)
			prices.POST("/check-batch", s.handleCheckPrices)
		}

		api.GET("/status", s.handleStatus)
		api.GET("/nonces/:nonce", s.handleGetNonce)

		// Admin routes (protected)
		admin := api.Group("/admin")
		admin.Use(s.AuthMiddleware())
		{
			admin.POST("/public-key", s.handleRotatePublicKey)
		}
	}
}
