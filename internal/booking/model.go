package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/apperror"
)

var (
	ErrNotFound = apperror.Invariant(http.StatusNotFound, "BookingNotFound", "booking not found")
)

// Event names published for booking changes.
const (
	EventCreated    = "booking.created"
	EventAuthorized = "booking.authorized"
	EventConfirmed  = "booking.confirmed"
	EventDeclined   = "booking.declined"
	EventCancelled  = "booking.cancelled"
	EventCheckedIn  = "booking.checked_in"
	EventCheckedOut = "booking.checked_out"
	EventNoShow     = "booking.no_show"
	EventCaptured   = "booking.payment_captured"
)

type Filter struct {
	HotelID    string
	GuestID    string
	RoomTypeID string
	Status     domain.BookingStatus
	From       *time.Time // stays ending after this date
	To         *time.Time // stays starting before this date
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

type CreateRequest struct {
	HotelID     string
	RoomTypeID  string
	GuestID     string
	CheckIn     time.Time
	CheckOut    time.Time
	Adults      int
	Children    int
	TotalAmount int64
	Currency    string
	Actor       domain.Actor
}

// Result is returned by every lifecycle operation. Event is nil when the
// call found the transition already applied. Related holds events of other
// entities changed in the same operation, such as the room flip on check-in.
type Result struct {
	Booking *domain.Booking
	Event   *domain.Event
	Related []*domain.Event
}

func (r *Result) events() []*domain.Event {
	return append([]*domain.Event{r.Event}, r.Related...)
}

func (r *Result) relate(events ...*domain.Event) {
	for _, e := range events {
		if e != nil {
			r.Related = append(r.Related, e)
		}
	}
}

// BulkItemResult is the outcome of one booking in a bulk operation.
type BulkItemResult struct {
	BookingID string
	Result    *Result
	Err       error
}
