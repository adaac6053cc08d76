package hotel

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.Invariant(http.StatusNotFound, "HotelNotFound", "hotel not found")
	ErrNameRequired    = apperror.New(http.StatusBadRequest, "hotel name is required")
	ErrInvalidTimezone = apperror.New(http.StatusBadRequest, "invalid IANA timezone")
	ErrInvalidClock    = apperror.New(http.StatusBadRequest, "check-in and check-out times must be HH:MM")
)

// Hotel is the tenant that owns rooms, room types and bookings.
type Hotel struct {
	ID           string
	Name         string
	Timezone     string
	CheckInTime  string // HH:MM, hotel local
	CheckOutTime string // HH:MM, hotel local
	IsActive     bool
	CreatedAt    time.Time
}

func (h *Hotel) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil {
		return nil, ErrInvalidTimezone.Wrap(err)
	}
	return loc, nil
}

// ArrivalAt returns the check-in instant for a stay starting on date.
func (h *Hotel) ArrivalAt(date time.Time) (time.Time, error) {
	loc, err := h.Location()
	if err != nil {
		return time.Time{}, err
	}
	hh, mm, err := parseClock(h.CheckInTime)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, hh, mm, 0, 0, loc).UTC(), nil
}

// LocalDate returns the hotel-local calendar date of t, at midnight UTC.
func (h *Hotel) LocalDate(t time.Time) (time.Time, error) {
	loc, err := h.Location()
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func parseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, ErrInvalidClock.Wrap(fmt.Errorf("parse %q: %w", s, err))
	}
	return t.Hour(), t.Minute(), nil
}
