package assignment

import (
	"context"
	"time"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/room"
)

// RoomRepository is the slice of room storage the assignment service needs.
type RoomRepository interface {
	GetByID(ctx context.Context, hotelID, id string) (*domain.Room, error)
	List(ctx context.Context, filter room.Filter) ([]*domain.Room, int, error)
	LockByIDs(ctx context.Context, hotelID string, ids []string) ([]*domain.Room, error)
	UpdateAssignment(ctx context.Context, r *domain.Room) error
}

// BookingRepository is the slice of booking storage the assignment service needs.
type BookingRepository interface {
	GetByID(ctx context.Context, hotelID, id string) (*domain.Booking, error)
	LockByID(ctx context.Context, hotelID, id string) (*domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error
	// ListAssignedOverlapping returns inventory-blocking bookings assigned to
	// any of roomIDs whose stay intersects [start, end), excluding one booking.
	ListAssignedOverlapping(ctx context.Context, hotelID string, roomIDs []string, start, end time.Time, excludeBookingID string) ([]*domain.Booking, error)
}

type AssignRequest struct {
	HotelID   string
	RoomID    string
	BookingID string
	Actor     domain.Actor
	Notes     string
}

type UnassignRequest struct {
	HotelID string
	RoomID  string
	Actor   domain.Actor
	Notes   string
}

// Result carries the state after an assignment change. Event is nil when the
// call was a no-op.
type Result struct {
	Room    *domain.Room
	Booking *domain.Booking
	Event   *domain.Event
}

// Event names published for assignment changes.
const (
	EventRoomAssigned   = "booking.room_assigned"
	EventRoomUnassigned = "booking.room_unassigned"
)
