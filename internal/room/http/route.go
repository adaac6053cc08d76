package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers room routes on a hotel-scoped group.
// staffMiddleware guards every status mutation.
func RegisterRoutes(g *gin.RouterGroup, h *RoomHandler, staffMiddleware gin.HandlerFunc) {
	roomGroup := g.Group("/rooms")
	{
		roomGroup.GET("", h.List)
		roomGroup.GET("/:id", h.Get)
		roomGroup.GET("/:id/history", h.History)
	}

	// === Turnover Workflow ===
	staffGroup := roomGroup.Group("/:id")
	staffGroup.Use(staffMiddleware)
	{
		staffGroup.POST("/transitions", h.Transition)
		staffGroup.POST("/start-cleaning", h.StartCleaning)
		staffGroup.POST("/mark-cleaned", h.MarkCleaned)
		staffGroup.POST("/inspect", h.Inspect)
		staffGroup.POST("/maintenance", h.ReportMaintenance)
		staffGroup.POST("/maintenance/resolve", h.ResolveMaintenance)
		staffGroup.POST("/out-of-order", h.MarkOutOfOrder)
		staffGroup.POST("/return-to-service", h.ReturnToService)
	}
}
