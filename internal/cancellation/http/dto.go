package http

import (
	"time"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

type TierBody struct {
	HoursBeforeCheckIn int     `json:"hours_before_check_in" binding:"min=0"`
	FeeMode            string  `json:"fee_mode" binding:"required,oneof=none fixed percentage first_night full_amount"`
	Percentage         float64 `json:"percentage"`
	FixedAmount        int64   `json:"fixed_amount"`
}

func (t TierBody) toDomain() domain.PolicyTier {
	return domain.PolicyTier{
		HoursBeforeCheckIn: t.HoursBeforeCheckIn,
		FeeMode:            domain.FeeMode(t.FeeMode),
		Percentage:         t.Percentage,
		FixedAmount:        t.FixedAmount,
	}
}

// ReplacePolicyRequest replaces the hotel's live policy as a whole.
type ReplacePolicyRequest struct {
	Name    string     `json:"name" binding:"required,max=100"`
	Tiers   []TierBody `json:"tiers" binding:"dive"`
	Default *TierBody  `json:"default"`
}

type PolicyResponse struct {
	Name      string              `json:"name"`
	Tiers     []domain.PolicyTier `json:"tiers"`
	Default   *domain.PolicyTier  `json:"default,omitempty"`
	UpdatedAt *time.Time          `json:"updated_at,omitempty"`
}

func NewPolicyResponse(p domain.CancellationPolicy) PolicyResponse {
	resp := PolicyResponse{
		Name:    p.Name,
		Tiers:   p.Tiers,
		Default: p.Default,
	}
	if resp.Tiers == nil {
		resp.Tiers = []domain.PolicyTier{}
	}
	if !p.UpdatedAt.IsZero() {
		resp.UpdatedAt = &p.UpdatedAt
	}
	return resp
}
