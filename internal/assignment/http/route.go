package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers assignment routes on a hotel-scoped group.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, staffMiddleware gin.HandlerFunc) {
	g.GET("/bookings/:id/room-candidates", h.Candidates)

	staffGroup := g.Group("")
	staffGroup.Use(staffMiddleware)
	{
		staffGroup.POST("/rooms/:id/assignment", h.Assign)
		staffGroup.DELETE("/rooms/:id/assignment", h.Unassign)
		staffGroup.POST("/bookings/:id/auto-assign", h.AutoAssign)
	}
}
