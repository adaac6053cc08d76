package http

import (
	"time"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/room"
)

// ListRoomsRequest defines query parameters for listing rooms.
type ListRoomsRequest struct {
	request.ListParams
	RoomTypeID   string `form:"room_type_id" binding:"omitempty,uuid"`
	Status       string `form:"status"`
	SellableOnly bool   `form:"sellable"`
	SortBy       string `form:"sort_by" binding:"omitempty,oneof=number floor turnover_status updated_at"`
}

// Validate performs custom validation for ListRoomsRequest.
func (r *ListRoomsRequest) Validate() error {
	if r.Status != "" && !domain.RoomStatus(r.Status).Valid() {
		return room.ErrInvalidStatus
	}
	return nil
}

type RoomResponse struct {
	ID                  string     `json:"id"`
	HotelID             string     `json:"hotel_id"`
	RoomTypeID          string     `json:"room_type_id"`
	RoomTypeName        string     `json:"room_type_name,omitempty"`
	Number              string     `json:"number"`
	Floor               *int       `json:"floor,omitempty"`
	TurnoverStatus      string     `json:"turnover_status"`
	Sellable            bool       `json:"sellable"`
	IsActive            bool       `json:"is_active"`
	IsOutOfOrder        bool       `json:"is_out_of_order"`
	MaintenanceRequired bool       `json:"maintenance_required"`
	AssignedBookingID   *string    `json:"assigned_booking_id,omitempty"`
	AssignedAt          *time.Time `json:"assigned_at,omitempty"`
	LastCleanedAt       *time.Time `json:"last_cleaned_at,omitempty"`
	LastInspectedAt     *time.Time `json:"last_inspected_at,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func NewRoomResponse(r *domain.Room) RoomResponse {
	return RoomResponse{
		ID:                  r.ID,
		HotelID:             r.HotelID,
		RoomTypeID:          r.RoomTypeID,
		RoomTypeName:        r.RoomTypeName,
		Number:              r.Number,
		Floor:               r.Floor,
		TurnoverStatus:      string(r.TurnoverStatus),
		Sellable:            r.IsSellable(),
		IsActive:            r.IsActive,
		IsOutOfOrder:        r.IsOutOfOrder,
		MaintenanceRequired: r.MaintenanceRequired,
		AssignedBookingID:   r.AssignedBookingID,
		AssignedAt:          r.AssignedAt,
		LastCleanedAt:       r.LastCleanedAt,
		LastInspectedAt:     r.LastInspectedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

type StatusEventResponse struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    string    `json:"actor_id"`
	Source     string    `json:"source"`
	Note       string    `json:"note,omitempty"`
	BookingID  *string   `json:"booking_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewStatusEventResponse(e *domain.RoomStatusEvent) StatusEventResponse {
	return StatusEventResponse{
		ID:         e.ID,
		RoomID:     e.RoomID,
		FromStatus: string(e.FromStatus),
		ToStatus:   string(e.ToStatus),
		ActorID:    e.ActorID,
		Source:     string(e.Source),
		Note:       e.Note,
		BookingID:  e.BookingID,
		CreatedAt:  e.CreatedAt,
	}
}

// TransitionResponse is returned by every room mutation.
type TransitionResponse struct {
	Room  RoomResponse  `json:"room"`
	Event *domain.Event `json:"event"`
}

func NewTransitionResponse(res *room.TransitionResult) TransitionResponse {
	return TransitionResponse{Room: NewRoomResponse(res.Room), Event: res.Event}
}

// TransitionRequest is the generic transition payload. Override requests
// bypass the table and need a manager and a note.
type TransitionRequest struct {
	To       string `json:"to" binding:"required"`
	Note     string `json:"note" binding:"max=500"`
	Override bool   `json:"override"`
}

// Validate performs custom validation for TransitionRequest.
func (r *TransitionRequest) Validate() error {
	if !domain.RoomStatus(r.To).Valid() {
		return room.ErrInvalidStatus
	}
	return nil
}

type NoteRequest struct {
	Note string `json:"note" binding:"max=500"`
}

type InspectRequest struct {
	Passed *bool  `json:"passed" binding:"required"`
	Note   string `json:"note" binding:"max=500"`
}

type ResolveMaintenanceRequest struct {
	NeedsCleaning bool   `json:"needs_cleaning"`
	Note          string `json:"note" binding:"max=500"`
}
