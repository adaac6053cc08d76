package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/hotel"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/response"
)

type HotelHandler struct {
	service hotel.Service
}

func NewHandler(service hotel.Service) *HotelHandler {
	return &HotelHandler{service: service}
}

// Get retrieves the hotel the caller is scoped to.
func (h *HotelHandler) Get(c *gin.Context) {
	var req request.HotelRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	ht, err := h.service.GetByID(c.Request.Context(), req.HotelID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewHotelResponse(ht))
}

// Update modifies hotel settings such as timezone and check-in time.
// Access Control: managers only.
func (h *HotelHandler) Update(c *gin.Context) {
	var uri request.HotelRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body UpdateHotelRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := body.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ht, err := h.service.Update(c.Request.Context(), uri.HotelID, hotel.UpdateRequest{
		Name:         body.Name,
		Timezone:     body.Timezone,
		CheckInTime:  body.CheckInTime,
		CheckOutTime: body.CheckOutTime,
		IsActive:     body.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewHotelResponse(ht))
}
