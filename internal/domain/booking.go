package domain

import "time"

// BookingStatus is the lifecycle state of a reservation.
type BookingStatus string

const (
	BookingPendingPayment  BookingStatus = "PENDING_PAYMENT"
	BookingPendingApproval BookingStatus = "PENDING_APPROVAL"
	BookingConfirmed       BookingStatus = "CONFIRMED"
	BookingDeclined        BookingStatus = "DECLINED"
	BookingCompleted       BookingStatus = "COMPLETED"
	BookingCancelled       BookingStatus = "CANCELLED"
	BookingNoShow          BookingStatus = "NO_SHOW"
)

// IsTerminal reports whether no further status change is permitted.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingDeclined, BookingCompleted, BookingCancelled, BookingNoShow:
		return true
	}
	return false
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPendingPayment, BookingPendingApproval, BookingConfirmed,
		BookingDeclined, BookingCompleted, BookingCancelled, BookingNoShow:
		return true
	}
	return false
}

// BookingNote is one append-only audit line attached to a booking.
type BookingNote struct {
	At      time.Time `json:"at"`
	ActorID string    `json:"actor_id"`
	Text    string    `json:"text"`
}

// Booking is a reservation for a room type across a range of nights.
// CheckIn and CheckOut are calendar dates at midnight UTC; ArrivalAt is the
// hotel-local check-in instant used for cancellation deadlines.
type Booking struct {
	ID         string
	HotelID    string
	RoomTypeID string
	GuestID    string
	CheckIn    time.Time
	CheckOut   time.Time
	ArrivalAt  time.Time
	Adults     int
	Children   int
	Status     BookingStatus

	TotalAmount int64
	Currency    string

	AuthorizationRef *string
	CaptureRef       *string
	VoidedAt         *time.Time
	RefundRef        *string

	AssignedRoomID *string
	CheckedInAt    *time.Time
	CheckedOutAt   *time.Time

	CancelledAt        *time.Time
	CancellationReason *string
	CancellationFee    *int64
	RefundAmount       *int64
	DeclineReason      *string

	PolicySnapshot CancellationPolicy
	Notes          []BookingNote

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Nights returns the number of nights in the stay, never less than one.
func (b *Booking) Nights() int {
	n := int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
	if n < 1 {
		return 1
	}
	return n
}

// InStay reports whether the guest has checked in and not yet checked out.
func (b *Booking) InStay() bool {
	return b.CheckedInAt != nil && b.CheckedOutAt == nil
}

// BlocksInventory reports whether the booking reserves room-nights.
// Pending bookings never hold inventory.
func (b *Booking) BlocksInventory() bool {
	if b.Status == BookingConfirmed && b.CheckedOutAt == nil {
		return true
	}
	return b.InStay()
}

// Overlaps reports whether [CheckIn, CheckOut) intersects [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.CheckIn.Before(end) && start.Before(b.CheckOut)
}

// CoversNight reports whether the stay includes the night starting on date.
func (b *Booking) CoversNight(date time.Time) bool {
	return !date.Before(b.CheckIn) && date.Before(b.CheckOut)
}

// IsCaptured reports whether money has been taken from the guest.
func (b *Booking) IsCaptured() bool {
	return b.CaptureRef != nil
}

// AddNote appends an audit line.
func (b *Booking) AddNote(at time.Time, actorID, text string) {
	b.Notes = append(b.Notes, BookingNote{At: at, ActorID: actorID, Text: text})
}

// Date truncates t to its calendar date in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
