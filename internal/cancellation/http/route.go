package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers cancellation policy routes on a hotel-scoped group.
func RegisterRoutes(g *gin.RouterGroup, h *PolicyHandler, managerMiddleware gin.HandlerFunc) {
	g.GET("/cancellation-policy", h.Get)
	g.PUT("/cancellation-policy", managerMiddleware, h.Replace)
}
