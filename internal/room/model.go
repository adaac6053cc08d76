package room

import (
	"net/http"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/apperror"
)

var (
	ErrNotFound      = apperror.Invariant(http.StatusNotFound, "RoomNotFound", "room not found")
	ErrInvalidStatus = apperror.New(http.StatusBadRequest, "invalid room status")
)

// Filter defines filter options for listing rooms of a hotel.
type Filter struct {
	HotelID      string
	RoomTypeID   string
	Status       domain.RoomStatus
	SellableOnly bool
	ActiveOnly   bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// EventFilter defines pagination for a room's status history.
type EventFilter struct {
	Page     int
	PageSize int
}

// TransitionRequest asks for one turnover state change.
type TransitionRequest struct {
	HotelID   string
	RoomID    string
	To        domain.RoomStatus
	Actor     domain.Actor
	Source    domain.TransitionSource
	Note      string
	BookingID *string
}

// TransitionResult carries the updated room, its audit record and the outbound event.
type TransitionResult struct {
	Room        *domain.Room
	StatusEvent *domain.RoomStatusEvent
	Event       *domain.Event
}

// Event names published for room changes.
const (
	EventStatusChanged = "room.status_changed"
)
