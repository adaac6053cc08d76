package room

import (
	"strings"
	"time"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

// transitions lists the allowed targets for each turnover state.
var transitions = map[domain.RoomStatus][]domain.RoomStatus{
	domain.RoomAvailable:           {domain.RoomOccupied, domain.RoomMaintenanceRequired, domain.RoomOutOfOrder},
	domain.RoomOccupied:            {domain.RoomCheckoutDirty},
	domain.RoomCheckoutDirty:       {domain.RoomCleaningInProgress, domain.RoomMaintenanceRequired},
	domain.RoomCleaningInProgress:  {domain.RoomCleanedUninspected, domain.RoomCheckoutDirty, domain.RoomMaintenanceRequired},
	domain.RoomCleanedUninspected:  {domain.RoomReadyForGuest, domain.RoomCheckoutDirty, domain.RoomMaintenanceRequired},
	domain.RoomMaintenanceRequired: {domain.RoomCheckoutDirty, domain.RoomCleanedUninspected, domain.RoomOutOfOrder},
	domain.RoomOutOfOrder:          {domain.RoomCheckoutDirty},
	domain.RoomReadyForGuest:       {domain.RoomOccupied, domain.RoomMaintenanceRequired, domain.RoomOutOfOrder},
}

// AllowedTargets returns the states reachable from from without an override.
func AllowedTargets(from domain.RoomStatus) []domain.RoomStatus {
	return append([]domain.RoomStatus(nil), transitions[from]...)
}

// CanTransition reports whether from→to is in the transition table.
func CanTransition(from, to domain.RoomStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// ValidateTransition checks a requested change against the table.
//
// A manager override may jump to any known state except OCCUPIED but must carry
// a note. OCCUPIED is reachable only from the booking check-in step, which runs
// with the automated source and a booking reference.
func ValidateTransition(from, to domain.RoomStatus, source domain.TransitionSource, note string, bookingID *string) error {
	reject := domain.ErrInvalidTransition.WithState(string(from), string(to))

	if !to.Valid() || !source.Valid() || from == to {
		return reject
	}

	if to == domain.RoomOccupied {
		if source != domain.SourceAutomated || bookingID == nil || *bookingID == "" {
			return reject.WithMessage("occupancy must originate from a booking check-in")
		}
		if !CanTransition(from, to) {
			return reject
		}
		return nil
	}

	if source == domain.SourceManagerOverride {
		if strings.TrimSpace(note) == "" {
			return domain.ErrMissingOverrideJustification.WithState(string(from), string(to))
		}
		return nil
	}

	if !CanTransition(from, to) {
		return reject
	}
	return nil
}

// applyTransition moves r to the target state and maintains the side fields
// tied to entering or leaving particular states.
func applyTransition(r *domain.Room, to domain.RoomStatus, actorID string, at time.Time) {
	from := r.TurnoverStatus

	if from == domain.RoomMaintenanceRequired {
		r.MaintenanceRequired = false
	}
	if from == domain.RoomOutOfOrder {
		r.IsOutOfOrder = false
	}

	switch to {
	case domain.RoomCleanedUninspected:
		r.LastCleanedAt = &at
		r.CleanedBy = &actorID
	case domain.RoomReadyForGuest:
		r.LastInspectedAt = &at
		r.InspectedBy = &actorID
	case domain.RoomMaintenanceRequired:
		r.MaintenanceRequired = true
	case domain.RoomOutOfOrder:
		r.IsOutOfOrder = true
	}

	r.TurnoverStatus = to
	r.UpdatedAt = at
}
