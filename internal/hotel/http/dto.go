package http

import (
	"time"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/hotel"
)

type HotelResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Timezone     string    `json:"timezone"`
	CheckInTime  string    `json:"check_in_time"`
	CheckOutTime string    `json:"check_out_time"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewHotelResponse(h *hotel.Hotel) HotelResponse {
	return HotelResponse{
		ID:           h.ID,
		Name:         h.Name,
		Timezone:     h.Timezone,
		CheckInTime:  h.CheckInTime,
		CheckOutTime: h.CheckOutTime,
		IsActive:     h.IsActive,
		CreatedAt:    h.CreatedAt,
	}
}

// UpdateHotelRequest defines the payload for updating a hotel.
type UpdateHotelRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=100"`
	Timezone     *string `json:"timezone" binding:"omitempty,min=1"`
	CheckInTime  *string `json:"check_in_time" binding:"omitempty,len=5"`
	CheckOutTime *string `json:"check_out_time" binding:"omitempty,len=5"`
	IsActive     *bool   `json:"is_active"`
}

// Validate performs custom validation for UpdateHotelRequest.
func (r *UpdateHotelRequest) Validate() error {
	return nil
}
