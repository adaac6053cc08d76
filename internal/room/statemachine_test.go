package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

func TestValidateTransition(t *testing.T) {
	bookingID := "b1"

	tests := []struct {
		name      string
		from, to  domain.RoomStatus
		source    domain.TransitionSource
		note      string
		bookingID *string
		wantErr   error
	}{
		{"dirty to cleaning", domain.RoomCheckoutDirty, domain.RoomCleaningInProgress, domain.SourceStaffAction, "", nil, nil},
		{"cleaning to cleaned", domain.RoomCleaningInProgress, domain.RoomCleanedUninspected, domain.SourceStaffAction, "", nil, nil},
		{"cleaned to ready", domain.RoomCleanedUninspected, domain.RoomReadyForGuest, domain.SourceStaffAction, "", nil, nil},
		{"failed inspection", domain.RoomCleanedUninspected, domain.RoomCheckoutDirty, domain.SourceStaffAction, "", nil, nil},
		{"out of order returns dirty", domain.RoomOutOfOrder, domain.RoomCheckoutDirty, domain.SourceStaffAction, "", nil, nil},
		{"skip inspection", domain.RoomCleaningInProgress, domain.RoomReadyForGuest, domain.SourceStaffAction, "", nil, domain.ErrInvalidTransition},
		{"dirty straight to ready", domain.RoomCheckoutDirty, domain.RoomReadyForGuest, domain.SourceStaffAction, "", nil, domain.ErrInvalidTransition},
		{"same state", domain.RoomAvailable, domain.RoomAvailable, domain.SourceStaffAction, "", nil, domain.ErrInvalidTransition},
		{"unknown target", domain.RoomAvailable, domain.RoomStatus("HAUNTED"), domain.SourceStaffAction, "", nil, domain.ErrInvalidTransition},
		{"check-in occupies ready room", domain.RoomReadyForGuest, domain.RoomOccupied, domain.SourceAutomated, "", &bookingID, nil},
		{"staff cannot occupy", domain.RoomReadyForGuest, domain.RoomOccupied, domain.SourceStaffAction, "", nil, domain.ErrInvalidTransition},
		{"occupy needs booking", domain.RoomAvailable, domain.RoomOccupied, domain.SourceAutomated, "", nil, domain.ErrInvalidTransition},
		{"override cannot occupy", domain.RoomCheckoutDirty, domain.RoomOccupied, domain.SourceManagerOverride, "vip", nil, domain.ErrInvalidTransition},
		{"occupy dirty room rejected", domain.RoomCheckoutDirty, domain.RoomOccupied, domain.SourceAutomated, "", &bookingID, domain.ErrInvalidTransition},
		{"override with note", domain.RoomCheckoutDirty, domain.RoomReadyForGuest, domain.SourceManagerOverride, "inspected by GM", nil, nil},
		{"override without note", domain.RoomCheckoutDirty, domain.RoomReadyForGuest, domain.SourceManagerOverride, "  ", nil, domain.ErrMissingOverrideJustification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to, tt.source, tt.note, tt.bookingID)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAllowedTargetsIsCopy(t *testing.T) {
	got := AllowedTargets(domain.RoomAvailable)
	got[0] = domain.RoomOutOfOrder

	assert.True(t, CanTransition(domain.RoomAvailable, domain.RoomOccupied))
}

func TestApplyTransitionSideFields(t *testing.T) {
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	r := &domain.Room{TurnoverStatus: domain.RoomCleaningInProgress, IsActive: true}
	applyTransition(r, domain.RoomCleanedUninspected, "hk-1", at)
	if assert.NotNil(t, r.LastCleanedAt) {
		assert.Equal(t, at, *r.LastCleanedAt)
	}
	assert.Equal(t, "hk-1", *r.CleanedBy)

	applyTransition(r, domain.RoomMaintenanceRequired, "hk-1", at)
	assert.True(t, r.MaintenanceRequired)
	assert.False(t, r.IsSellable())

	applyTransition(r, domain.RoomOutOfOrder, "mgr", at)
	assert.False(t, r.MaintenanceRequired, "leaving maintenance clears the flag")
	assert.True(t, r.IsOutOfOrder)

	applyTransition(r, domain.RoomCheckoutDirty, "mgr", at)
	assert.False(t, r.IsOutOfOrder)
	assert.Equal(t, domain.RoomCheckoutDirty, r.TurnoverStatus)
}
