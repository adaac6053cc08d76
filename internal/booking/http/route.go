package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers booking routes on a hotel-scoped group.
// frontDeskMiddleware guards every lifecycle mutation.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, frontDeskMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.GET("/:id/cancellation-quote", h.CancellationQuote)
	}

	// === Front Desk ===
	deskGroup := group.Group("")
	deskGroup.Use(frontDeskMiddleware)
	{
		deskGroup.POST("", h.Create)
		deskGroup.POST("/bulk-checkout", h.BulkCheckOut)
		deskGroup.POST("/:id/accept", h.Accept)
		deskGroup.POST("/:id/decline", h.Decline)
		deskGroup.POST("/:id/cancel", h.Cancel)
		deskGroup.POST("/:id/check-in", h.CheckIn)
		deskGroup.POST("/:id/check-out", h.CheckOut)
		deskGroup.POST("/:id/no-show", h.NoShow)
	}
}

// RegisterWebhookRoutes registers the payment gateway callbacks. They carry
// no staff token and are guarded by tokenMiddleware instead.
func RegisterWebhookRoutes(g *gin.RouterGroup, h *Handler, tokenMiddleware gin.HandlerFunc) {
	group := g.Group("/webhooks/payments")
	group.Use(tokenMiddleware)
	{
		group.POST("/authorized", h.AuthorizationWebhook)
	}
}
