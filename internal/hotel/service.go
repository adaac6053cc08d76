package hotel

import (
	"context"
	"strings"
	"time"
)

// UpdateRequest defines the fields that can be updated.
type UpdateRequest struct {
	Name         *string
	Timezone     *string
	CheckInTime  *string
	CheckOutTime *string
	IsActive     *bool
}

// Service defines business logic for hotels.
type Service interface {
	GetByID(ctx context.Context, id string) (*Hotel, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Hotel, error)
}

type service struct {
	repo Repository
}

// NewService creates a new hotel service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id string) (*Hotel, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Hotel, error) {
	// Check existence
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Apply updates if provided
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		h.Name = name
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, ErrInvalidTimezone
		}
		h.Timezone = *req.Timezone
	}
	if req.CheckInTime != nil {
		if _, _, err := parseClock(*req.CheckInTime); err != nil {
			return nil, err
		}
		h.CheckInTime = *req.CheckInTime
	}
	if req.CheckOutTime != nil {
		if _, _, err := parseClock(*req.CheckOutTime); err != nil {
			return nil, err
		}
		h.CheckOutTime = *req.CheckOutTime
	}
	if req.IsActive != nil {
		h.IsActive = *req.IsActive
	}

	// Save updates
	if err := s.repo.Update(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}
