package http

import (
	"time"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/roomtype"
)

// ListRoomTypesRequest defines query parameters for listing room types.
type ListRoomTypesRequest struct {
	request.ListParams
	SortBy string `form:"sort_by" binding:"omitempty,oneof=name created_at max_occupancy"`
}

type RoomTypeResponse struct {
	ID           string    `json:"id"`
	HotelID      string    `json:"hotel_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	MaxOccupancy int       `json:"max_occupancy"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewResponse(rt *roomtype.RoomType) RoomTypeResponse {
	return RoomTypeResponse{
		ID:           rt.ID,
		HotelID:      rt.HotelID,
		Name:         rt.Name,
		Description:  rt.Description,
		MaxOccupancy: rt.MaxOccupancy,
		CreatedAt:    rt.CreatedAt,
	}
}
