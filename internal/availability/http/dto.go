package http

import (
	"time"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

// AvailabilityRequest asks for per-night availability of one room type.
// Dates are hotel-local calendar dates (YYYY-MM-DD); End is exclusive.
type AvailabilityRequest struct {
	RoomTypeID string    `form:"room_type_id" binding:"required,uuid"`
	Start      time.Time `form:"start" binding:"required" time_format:"2006-01-02"`
	End        time.Time `form:"end" binding:"required" time_format:"2006-01-02"`
}

// Validate performs custom validation for AvailabilityRequest.
func (r *AvailabilityRequest) Validate() error {
	if !r.Start.Before(r.End) {
		return domain.ErrValidation.WithMessage("end must be after start")
	}
	return nil
}
