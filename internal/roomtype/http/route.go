package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers room type routes on a hotel-scoped group.
func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	rtGroup := g.Group("/room-types")
	{
		rtGroup.GET("", h.List)
		rtGroup.GET("/:id", h.Get)
	}
}
