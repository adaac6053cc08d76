package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/hotel"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/response"
)

var errHotelInactive = apperror.New(http.StatusForbidden, "hotel is deactivated")

// RequireActiveHotel rejects mutations against a deactivated hotel.
// It MUST be used after auth.RequireHotelScope.
func RequireActiveHotel(hotelService hotel.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		h, err := hotelService.GetByID(c.Request.Context(), c.Param("hotel_id"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		// Managers may still reactivate the hotel itself.
		if !h.IsActive && c.FullPath() != "/v1/hotels/:hotel_id" {
			response.Error(c, errHotelInactive)
			c.Abort()
			return
		}

		c.Next()
	}
}
