package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/bike-sharing/internal/api/handlers"
	"github.com/gocomet/bike-sharing/internal/api/middleware"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, nrApp *newrelic.Application) {
	// Add New Relic middleware if enabled
	if nrApp != nil {
		r.Use(nrgin.Middleware(nrApp))
	}
	r.Use(middleware.RequestID(), middleware.AccessLog(h.Logger))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"connections": h.Hub.GetActiveConnections(),
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// WebSocket connection
		v1.GET("/ws", h.HandleWebSocket)

		members := v1.Group("/members")
		{
			members.POST("", h.RegisterMember)
			members.GET("", h.ListMembers)
			members.GET("/:id", h.GetMember)
			members.PUT("/:id", h.UpdateMember)
			members.PUT("/:id/start-date", h.ChangeStartDate)
			members.POST("/:id/withdraw", h.WithdrawMember)
		}

		bikes := v1.Group("/bikes")
		{
			bikes.POST("", h.CreateBike)
			bikes.GET("", h.ListBikes)
			bikes.GET("/:id", h.GetBike)
			bikes.POST("/:id/repair", h.SendBikeToRepair)
			bikes.POST("/:id/retire", h.RetireBike)
			bikes.POST("/:id/activate", h.ActivateBike)
			bikes.PUT("/:id/note", h.UpdateBikeNote)
		}

		rides := v1.Group("/rides")
		{
			rides.POST("", h.OpenRide)
			rides.GET("", h.ListRides)
			rides.GET("/:id", h.GetRide)
			rides.POST("/:id/close", h.CloseRide)
		}
	}
}
