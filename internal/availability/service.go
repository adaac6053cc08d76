package availability

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

// MaxRangeNights bounds a single availability query.
const MaxRangeNights = 366

// Service computes remaining sellable room-nights for a room type.
type Service interface {
	AvailableUnits(ctx context.Context, hotelID, roomTypeID string, date time.Time) (int, error)
	ForRange(ctx context.Context, hotelID, roomTypeID string, start, end time.Time) (*Range, error)
}

type service struct {
	repo   Repository
	logger *logrus.Logger
}

func NewService(repo Repository, logger *logrus.Logger) Service {
	return &service{repo: repo, logger: logger}
}

func (s *service) AvailableUnits(ctx context.Context, hotelID, roomTypeID string, date time.Time) (int, error) {
	date = domain.Date(date)
	r, err := s.ForRange(ctx, hotelID, roomTypeID, date, date.AddDate(0, 0, 1))
	if err != nil {
		return 0, err
	}
	return r.Min, nil
}

func (s *service) ForRange(ctx context.Context, hotelID, roomTypeID string, start, end time.Time) (*Range, error) {
	start, end = domain.Date(start), domain.Date(end)
	if !start.Before(end) {
		return nil, domain.ErrValidation.WithMessage("end date must be after start date")
	}
	if end.Sub(start) > MaxRangeNights*24*time.Hour {
		return nil, domain.ErrValidation.WithMessage("date range too long")
	}

	sellable, err := s.repo.CountSellable(ctx, hotelID, roomTypeID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.repo.ListBlocking(ctx, hotelID, roomTypeID, start, end)
	if err != nil {
		return nil, err
	}

	r := Compute(sellable, bookings, start, end)
	r.RoomTypeID = roomTypeID

	for _, n := range r.Nights {
		if n.Clamped {
			s.logger.WithFields(logrus.Fields{
				"hotel_id":     hotelID,
				"room_type_id": roomTypeID,
				"date":         n.Date.Format(time.DateOnly),
				"sellable":     sellable,
				"blocked":      n.Blocked,
			}).Warn("availability anomaly: blocking bookings exceed sellable rooms")
		}
	}
	return &r, nil
}
