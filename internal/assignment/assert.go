package assignment

import (
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

// AssertAssignable checks, in order, that room and booking share a hotel,
// that the booking is confirmed, that the room is sellable, and that no other
// booking holds the room for an overlapping stay.
//
// A booking already in its stay may be re-checked against its own occupied
// room without the sellability requirement.
func AssertAssignable(r *domain.Room, b *domain.Booking, overlapping bool) error {
	if r.HotelID != b.HotelID {
		return domain.ErrHotelMismatch.WithState(r.HotelID, b.HotelID)
	}
	if b.Status != domain.BookingConfirmed {
		return domain.ErrBookingNotConfirmed.WithState(string(b.Status), string(domain.BookingConfirmed))
	}
	if !ownStay(r, b) && !r.IsSellable() {
		return domain.ErrRoomNotSellable.WithState(string(r.TurnoverStatus), "ASSIGNED")
	}
	if overlapping {
		return domain.ErrOverlapConflict.WithState(r.Number, b.ID)
	}
	return nil
}

func ownStay(r *domain.Room, b *domain.Booking) bool {
	return b.InStay() &&
		r.TurnoverStatus == domain.RoomOccupied &&
		r.AssignedBookingID != nil && *r.AssignedBookingID == b.ID
}
