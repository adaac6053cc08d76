package cancellation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

func twoTierPolicy() domain.CancellationPolicy {
	return domain.CancellationPolicy{
		Name: "standard",
		Tiers: []domain.PolicyTier{
			{HoursBeforeCheckIn: 24, FeeMode: domain.FeePercentage, Percentage: 50},
			{HoursBeforeCheckIn: 48, FeeMode: domain.FeeNone},
		},
		Default: &domain.PolicyTier{FeeMode: domain.FeeFullAmount},
	}
}

func stay(total int64, nights int) *domain.Booking {
	checkIn := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	return &domain.Booking{
		CheckIn:     checkIn,
		CheckOut:    checkIn.AddDate(0, 0, nights),
		ArrivalAt:   checkIn.Add(15 * time.Hour),
		TotalAmount: total,
		Currency:    "EUR",
	}
}

func TestCalculateTieredPolicy(t *testing.T) {
	b := stay(20000, 2)

	tests := []struct {
		name       string
		before     time.Duration
		wantFee    int64
		wantRefund int64
		wantMode   domain.FeeMode
	}{
		{"72h before falls in free tier", 72 * time.Hour, 0, 20000, domain.FeeNone},
		{"exactly 48h qualifies for free tier", 48 * time.Hour, 0, 20000, domain.FeeNone},
		{"30h before charges half", 30 * time.Hour, 10000, 10000, domain.FeePercentage},
		{"2h before uses default", 2 * time.Hour, 20000, 0, domain.FeeFullAmount},
		{"after arrival clamps to zero hours", -5 * time.Hour, 20000, 0, domain.FeeFullAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(twoTierPolicy(), b, b.ArrivalAt.Add(-tt.before))
			assert.Equal(t, tt.wantFee, got.Fee)
			assert.Equal(t, tt.wantRefund, got.Refund)
			assert.Equal(t, tt.wantMode, got.FeeMode)
			assert.GreaterOrEqual(t, got.HoursUntilCheckIn, 0.0)
			assert.NotEmpty(t, got.Description)
		})
	}
}

func TestCalculateFeeModes(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		tier    domain.PolicyTier
		booking *domain.Booking
		wantFee int64
	}{
		{"fixed below total", domain.PolicyTier{FeeMode: domain.FeeFixed, FixedAmount: 3000}, stay(20000, 2), 3000},
		{"fixed capped at total", domain.PolicyTier{FeeMode: domain.FeeFixed, FixedAmount: 50000}, stay(20000, 2), 20000},
		{"first night of three", domain.PolicyTier{FeeMode: domain.FeeFirstNight}, stay(30000, 3), 10000},
		{"first night of one", domain.PolicyTier{FeeMode: domain.FeeFirstNight}, stay(12345, 1), 12345},
		{"percentage rounds half up", domain.PolicyTier{FeeMode: domain.FeePercentage, Percentage: 12.5}, stay(101, 1), 13},
		{"none", domain.PolicyTier{FeeMode: domain.FeeNone}, stay(20000, 2), 0},
		{"full amount", domain.PolicyTier{FeeMode: domain.FeeFullAmount}, stay(20000, 2), 20000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := domain.CancellationPolicy{Tiers: []domain.PolicyTier{tt.tier}}
			got := Calculate(policy, tt.booking, now)
			assert.Equal(t, tt.wantFee, got.Fee)
			assert.Equal(t, tt.booking.TotalAmount-tt.wantFee, got.Refund)
		})
	}
}

func TestCalculateWithoutDefaultChargesFullAmount(t *testing.T) {
	b := stay(20000, 2)
	policy := domain.CancellationPolicy{
		Tiers: []domain.PolicyTier{{HoursBeforeCheckIn: 48, FeeMode: domain.FeeNone}},
	}

	got := Calculate(policy, b, b.ArrivalAt.Add(-10*time.Hour))

	assert.Equal(t, int64(20000), got.Fee)
	assert.Equal(t, int64(0), got.Refund)
	assert.Nil(t, got.AppliedTier)
	assert.Equal(t, domain.FeeFullAmount, got.FeeMode)
}

func TestCalculateIsDeterministic(t *testing.T) {
	b := stay(20000, 2)
	now := b.ArrivalAt.Add(-30 * time.Hour)

	assert.Equal(t, Calculate(twoTierPolicy(), b, now), Calculate(twoTierPolicy(), b, now))
}

func TestCalculateUsesSnapshotNotLivePolicy(t *testing.T) {
	live := twoTierPolicy()
	b := stay(20000, 2)
	b.PolicySnapshot = live.Clone()
	now := b.ArrivalAt.Add(-30 * time.Hour)

	before := Calculate(b.PolicySnapshot, b, now)

	// Hotel tightens its live policy after the booking exists.
	live.Tiers[0].Percentage = 100
	live.Tiers[1].FeeMode = domain.FeeFullAmount

	after := Calculate(b.PolicySnapshot, b, now)
	assert.Equal(t, before, after)
	assert.Equal(t, int64(10000), after.Fee)
}
