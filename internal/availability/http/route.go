package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers availability routes on a hotel-scoped group.
func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	g.GET("/availability", h.Get)
}
