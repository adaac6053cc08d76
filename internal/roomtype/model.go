package roomtype

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/apperror"
)

var (
	ErrNotFound = apperror.Invariant(http.StatusNotFound, "RoomTypeNotFound", "room type not found")
)

// RoomType is a sellable category of rooms (e.g. Deluxe Double). Bookings
// reserve a room type; a physical room is assigned later.
type RoomType struct {
	ID           string
	HotelID      string
	Name         string
	Description  string
	MaxOccupancy int
	CreatedAt    time.Time
}

// Filter defines parameters for listing room types.
type Filter struct {
	HotelID   string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
