package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoomIsSellable(t *testing.T) {
	tests := []struct {
		name string
		room Room
		want bool
	}{
		{"available and clean", Room{TurnoverStatus: RoomAvailable, IsActive: true}, true},
		{"ready for guest", Room{TurnoverStatus: RoomReadyForGuest, IsActive: true}, true},
		{"dirty", Room{TurnoverStatus: RoomCheckoutDirty, IsActive: true}, false},
		{"cleaned but not inspected", Room{TurnoverStatus: RoomCleanedUninspected, IsActive: true}, false},
		{"occupied", Room{TurnoverStatus: RoomOccupied, IsActive: true}, false},
		{"inactive", Room{TurnoverStatus: RoomAvailable, IsActive: false}, false},
		{"out of order flag overrides status", Room{TurnoverStatus: RoomReadyForGuest, IsActive: true, IsOutOfOrder: true}, false},
		{"maintenance flag", Room{TurnoverStatus: RoomAvailable, IsActive: true, MaintenanceRequired: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.room.IsSellable())
		})
	}
}

func TestBookingBlocksInventory(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		booking Booking
		want    bool
	}{
		{"confirmed before arrival", Booking{Status: BookingConfirmed}, true},
		{"confirmed and in stay", Booking{Status: BookingConfirmed, CheckedInAt: &now}, true},
		{"completed", Booking{Status: BookingCompleted, CheckedInAt: &now, CheckedOutAt: &now}, false},
		{"pending payment", Booking{Status: BookingPendingPayment}, false},
		{"pending approval", Booking{Status: BookingPendingApproval}, false},
		{"cancelled", Booking{Status: BookingCancelled}, false},
		{"no show", Booking{Status: BookingNoShow}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.booking.BlocksInventory())
		})
	}
}

func TestBookingNightsAndOverlap(t *testing.T) {
	b := Booking{
		CheckIn:  time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, 3, b.Nights())
	assert.True(t, b.CoversNight(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)))
	assert.False(t, b.CoversNight(time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)), "checkout day is not a night of the stay")

	// Back-to-back stays share a turnover day but no night.
	assert.False(t, b.Overlaps(time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, b.Overlaps(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)))
}

func TestPolicyCloneIsIndependent(t *testing.T) {
	live := CancellationPolicy{
		Name:    "flex",
		Tiers:   []PolicyTier{{HoursBeforeCheckIn: 24, FeeMode: FeePercentage, Percentage: 50}},
		Default: &PolicyTier{FeeMode: FeeFullAmount},
	}
	snap := live.Clone()

	live.Tiers[0].Percentage = 100
	live.Default.FeeMode = FeeNone

	assert.Equal(t, 50.0, snap.Tiers[0].Percentage)
	assert.Equal(t, FeeFullAmount, snap.Default.FeeMode)
}
