package routes

import (
	"time"

	"screenlink/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterDeviceRoutes registers device registry endpoints.
func RegisterDeviceRoutes(r *gin.Engine, h *handlers.Handler) {
	api := r.Group("/api")
	{
		api.POST("/devices/register", h.RegisterDevice)
		api.GET("/devices", h.ListDevices)
		api.GET("/servers", h.ListServers)
	}
}

// RegisterSessionRoutes registers session lifecycle endpoints.
func RegisterSessionRoutes(r *gin.Engine, h *handlers.Handler) {
	api := r.Group("/api/sessions")
	{
		api.POST("", h.CreateSession)
		api.GET("/available", h.ListAvailableSessions)
		api.GET("/:id", h.GetSession)
		api.POST("/:id/stop", h.StopSession)
	}
}

// RegisterSignalingRoute registers the websocket signaling endpoint.
func RegisterSignalingRoute(r *gin.Engine, h *handlers.Handler) {
	r.GET("/ws", h.ServeWS)
}

// RegisterHealthRoute registers the health-check and landing endpoints.
func RegisterHealthRoute(r *gin.Engine, h *handlers.Handler) {
	r.GET("/health", h.Health)
	r.GET("/", h.Landing)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterDeviceRoutes(r, h)
	RegisterSessionRoutes(r, h)
	RegisterSignalingRoute(r, h)
	RegisterHealthRoute(r, h)
}
