package domain

import "time"

// RoomStatus is the housekeeping turnover state of a physical room.
type RoomStatus string

const (
	RoomAvailable           RoomStatus = "AVAILABLE"
	RoomOccupied            RoomStatus = "OCCUPIED"
	RoomCheckoutDirty       RoomStatus = "CHECKOUT_DIRTY"
	RoomCleaningInProgress  RoomStatus = "CLEANING_IN_PROGRESS"
	RoomCleanedUninspected  RoomStatus = "CLEANED_UNINSPECTED"
	RoomMaintenanceRequired RoomStatus = "MAINTENANCE_REQUIRED"
	RoomOutOfOrder          RoomStatus = "OUT_OF_ORDER"
	RoomReadyForGuest       RoomStatus = "READY_FOR_GUEST"
)

// RoomStatuses lists every structurally valid turnover state.
var RoomStatuses = []RoomStatus{
	RoomAvailable,
	RoomOccupied,
	RoomCheckoutDirty,
	RoomCleaningInProgress,
	RoomCleanedUninspected,
	RoomMaintenanceRequired,
	RoomOutOfOrder,
	RoomReadyForGuest,
}

// Valid reports whether s is one of the known turnover states.
func (s RoomStatus) Valid() bool {
	for _, v := range RoomStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// TransitionSource tags who or what initiated a room status change.
type TransitionSource string

const (
	SourceStaffAction     TransitionSource = "staff_action"
	SourceAutomated       TransitionSource = "automated"
	SourceManagerOverride TransitionSource = "manager_override"
)

func (s TransitionSource) Valid() bool {
	switch s {
	case SourceStaffAction, SourceAutomated, SourceManagerOverride:
		return true
	}
	return false
}

// Room is a physical, bookable unit of a hotel.
type Room struct {
	ID                  string
	HotelID             string
	RoomTypeID          string
	RoomTypeName        string
	Number              string
	Floor               *int
	TurnoverStatus      RoomStatus
	IsActive            bool
	IsOutOfOrder        bool
	MaintenanceRequired bool

	AssignedBookingID *string
	AssignedAt        *time.Time
	AssignedBy        *string
	AssignmentVersion int64

	LastCleanedAt   *time.Time
	CleanedBy       *string
	LastInspectedAt *time.Time
	InspectedBy     *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsSellable reports whether the room may be offered to a guest.
func (r *Room) IsSellable() bool {
	if r.IsOutOfOrder || !r.IsActive || r.MaintenanceRequired {
		return false
	}
	return r.TurnoverStatus == RoomAvailable || r.TurnoverStatus == RoomReadyForGuest
}

// ClearAssignment drops the room's link to its latest booking.
func (r *Room) ClearAssignment() {
	r.AssignedBookingID = nil
	r.AssignedAt = nil
	r.AssignedBy = nil
}

// RoomStatusEvent is an immutable audit record of one turnover transition.
type RoomStatusEvent struct {
	ID         string
	HotelID    string
	RoomID     string
	FromStatus RoomStatus
	ToStatus   RoomStatus
	ActorID    string
	Source     TransitionSource
	Note       string
	BookingID  *string
	CreatedAt  time.Time
}
