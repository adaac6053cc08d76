package cancellation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

// Service manages live policies. Bookings never read them after creation.
type Service interface {
	// Get returns the hotel's live policy, or FallbackPolicy when none is configured.
	Get(ctx context.Context, hotelID string) (domain.CancellationPolicy, error)
	Replace(ctx context.Context, hotelID string, req ReplaceRequest) (*domain.CancellationPolicy, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, hotelID string) (domain.CancellationPolicy, error) {
	p, err := s.repo.GetByHotel(ctx, hotelID)
	if err != nil {
		if errors.Is(err, ErrPolicyNotFound) {
			return FallbackPolicy(hotelID), nil
		}
		return domain.CancellationPolicy{}, err
	}
	return *p, nil
}

func (s *service) Replace(ctx context.Context, hotelID string, req ReplaceRequest) (*domain.CancellationPolicy, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, ErrInvalidPolicy.WithMessage("policy name is required")
	}

	seen := make(map[int]bool, len(req.Tiers))
	for _, t := range req.Tiers {
		if t.HoursBeforeCheckIn < 0 {
			return nil, ErrInvalidPolicy.WithMessage("tier hours must not be negative")
		}
		if seen[t.HoursBeforeCheckIn] {
			return nil, ErrInvalidPolicy.WithMessage(fmt.Sprintf("duplicate tier at %d hours", t.HoursBeforeCheckIn))
		}
		seen[t.HoursBeforeCheckIn] = true
		if err := validateTier(t); err != nil {
			return nil, err
		}
	}
	if req.Default != nil {
		if err := validateTier(*req.Default); err != nil {
			return nil, err
		}
	}

	tiers := append([]domain.PolicyTier(nil), req.Tiers...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].HoursBeforeCheckIn > tiers[j].HoursBeforeCheckIn })

	p := &domain.CancellationPolicy{
		HotelID: hotelID,
		Name:    req.Name,
		Tiers:   tiers,
		Default: req.Default,
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func validateTier(t domain.PolicyTier) error {
	if !t.FeeMode.Valid() {
		return ErrInvalidPolicy.WithMessage(fmt.Sprintf("unknown fee mode %q", t.FeeMode))
	}
	switch t.FeeMode {
	case domain.FeePercentage:
		if t.Percentage <= 0 || t.Percentage > 100 {
			return ErrInvalidPolicy.WithMessage("percentage must be in (0, 100]")
		}
	case domain.FeeFixed:
		if t.FixedAmount <= 0 {
			return ErrInvalidPolicy.WithMessage("fixed amount must be positive")
		}
	}
	return nil
}
