package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/availability"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/response"
)

type Handler struct {
	service availability.Service
}

func NewHandler(service availability.Service) *Handler {
	return &Handler{service: service}
}

// Get returns availability for each night of the requested range.
func (h *Handler) Get(c *gin.Context) {
	var uri request.HotelRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var req AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	r, err := h.service.ForRange(c.Request.Context(), uri.HotelID, req.RoomTypeID, req.Start, req.End)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, r)
}
