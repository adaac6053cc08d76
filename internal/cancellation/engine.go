package cancellation

import (
	"fmt"
	"math"
	"time"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

// Breakdown is the result of applying a policy to a booking at a given instant.
type Breakdown struct {
	Fee               int64              `json:"fee_amount"`
	Refund            int64              `json:"refund_amount"`
	Currency          string             `json:"currency"`
	HoursUntilCheckIn float64            `json:"hours_until_check_in"`
	AppliedTier       *domain.PolicyTier `json:"applied_tier,omitempty"`
	FeeMode           domain.FeeMode     `json:"fee_mode"`
	Description       string             `json:"description"`
}

// Calculate computes the cancellation fee and refund for b under policy at now.
// It reads no clock and touches no storage, so equal inputs give equal output.
func Calculate(policy domain.CancellationPolicy, b *domain.Booking, now time.Time) Breakdown {
	hours := b.ArrivalAt.Sub(now).Hours()
	if hours < 0 {
		hours = 0
	}

	tier := selectTier(policy, hours)
	mode := domain.FeeFullAmount
	if tier != nil {
		mode = tier.FeeMode
	}

	fee := feeFor(tier, mode, b)
	if fee < 0 {
		fee = 0
	}
	if fee > b.TotalAmount {
		fee = b.TotalAmount
	}
	refund := b.TotalAmount - fee
	if refund < 0 {
		refund = 0
	}

	return Breakdown{
		Fee:               fee,
		Refund:            refund,
		Currency:          b.Currency,
		HoursUntilCheckIn: hours,
		AppliedTier:       tier,
		FeeMode:           mode,
		Description:       describe(tier, mode, hours),
	}
}

// selectTier returns the tier with the largest threshold not exceeding hours,
// falling back to the policy default. A nil result means full amount.
func selectTier(policy domain.CancellationPolicy, hours float64) *domain.PolicyTier {
	var best *domain.PolicyTier
	for i := range policy.Tiers {
		t := policy.Tiers[i]
		if float64(t.HoursBeforeCheckIn) > hours {
			continue
		}
		if best == nil || t.HoursBeforeCheckIn > best.HoursBeforeCheckIn {
			best = &t
		}
	}
	if best != nil {
		return best
	}
	if policy.Default != nil {
		d := *policy.Default
		return &d
	}
	return nil
}

func feeFor(tier *domain.PolicyTier, mode domain.FeeMode, b *domain.Booking) int64 {
	switch mode {
	case domain.FeeNone:
		return 0
	case domain.FeePercentage:
		return int64(math.Round(float64(b.TotalAmount) * tier.Percentage / 100))
	case domain.FeeFixed:
		return min(tier.FixedAmount, b.TotalAmount)
	case domain.FeeFirstNight:
		return b.TotalAmount / int64(b.Nights())
	default:
		return b.TotalAmount
	}
}

func describe(tier *domain.PolicyTier, mode domain.FeeMode, hours float64) string {
	if tier == nil {
		return fmt.Sprintf("%.1fh before check-in: no matching tier, full amount charged", hours)
	}
	switch mode {
	case domain.FeeNone:
		return fmt.Sprintf("%.1fh before check-in: free cancellation", hours)
	case domain.FeePercentage:
		return fmt.Sprintf("%.1fh before check-in: %g%% of total charged", hours, tier.Percentage)
	case domain.FeeFixed:
		return fmt.Sprintf("%.1fh before check-in: fixed fee of %d charged", hours, tier.FixedAmount)
	case domain.FeeFirstNight:
		return fmt.Sprintf("%.1fh before check-in: first night charged", hours)
	default:
		return fmt.Sprintf("%.1fh before check-in: full amount charged", hours)
	}
}
