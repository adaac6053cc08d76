package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers hotel routes on a group already scoped to /hotels/:hotel_id.
func RegisterRoutes(g *gin.RouterGroup, h *HotelHandler, managerMiddleware gin.HandlerFunc) {
	g.GET("", h.Get)
	g.PATCH("", managerMiddleware, h.Update)
}
