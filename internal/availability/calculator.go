package availability

import (
	"time"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

// Night is the availability of one night, identified by its start date.
type Night struct {
	Date      time.Time `json:"date"`
	Available int       `json:"available"`
	Blocked   int       `json:"blocked"`
	// Clamped is set when blocking bookings outnumbered sellable rooms.
	Clamped bool `json:"clamped,omitempty"`
}

// Range is the per-night availability of a stay. Min is the bottleneck night.
type Range struct {
	RoomTypeID string  `json:"room_type_id"`
	Sellable   int     `json:"sellable"`
	Nights     []Night `json:"nights"`
	Min        int     `json:"min"`
}

// Bookable reports whether every night has at least one unit left.
func (r *Range) Bookable() bool {
	return len(r.Nights) > 0 && r.Min >= 1
}

// Compute derives availability for each night in [start, end) from the
// sellable room count and the bookings that may overlap it. Bookings that do
// not block inventory are ignored, so callers may pass a superset.
func Compute(sellable int, bookings []*domain.Booking, start, end time.Time) Range {
	start, end = domain.Date(start), domain.Date(end)

	r := Range{Sellable: sellable}
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		blocked := 0
		for _, b := range bookings {
			if b.BlocksInventory() && b.CoversNight(d) {
				blocked++
			}
		}

		n := Night{Date: d, Blocked: blocked, Available: sellable - blocked}
		if n.Available < 0 {
			n.Available = 0
			n.Clamped = true
		}
		r.Nights = append(r.Nights, n)

		if len(r.Nights) == 1 || n.Available < r.Min {
			r.Min = n.Available
		}
	}
	return r
}
