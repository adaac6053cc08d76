package http

import (
	"github.com/nekogravitycat/hotel-inventory-backend/internal/assignment"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	roomhttp "github.com/nekogravitycat/hotel-inventory-backend/internal/room/http"
)

type AssignRequest struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
	Notes     string `json:"notes" binding:"max=500"`
}

type UnassignRequest struct {
	Notes string `json:"notes" binding:"max=500"`
}

type AssignmentResponse struct {
	Room          roomhttp.RoomResponse `json:"room"`
	BookingID     string                `json:"booking_id,omitempty"`
	BookingRoomID *string               `json:"booking_assigned_room_id,omitempty"`
	Event         *domain.Event         `json:"event"`
}

func NewAssignmentResponse(res *assignment.Result) AssignmentResponse {
	resp := AssignmentResponse{
		Room:  roomhttp.NewRoomResponse(res.Room),
		Event: res.Event,
	}
	if res.Booking != nil {
		resp.BookingID = res.Booking.ID
		resp.BookingRoomID = res.Booking.AssignedRoomID
	}
	return resp
}
