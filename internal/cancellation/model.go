package cancellation

import (
	"net/http"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/apperror"
)

var (
	ErrPolicyNotFound = apperror.Invariant(http.StatusNotFound, "PolicyNotFound", "cancellation policy not found")
	ErrInvalidPolicy  = apperror.Invariant(http.StatusBadRequest, "InvalidPolicy", "invalid cancellation policy")
)

// ReplaceRequest holds the full set of terms for a hotel's live policy.
type ReplaceRequest struct {
	Name    string
	Tiers   []domain.PolicyTier
	Default *domain.PolicyTier
}

// FallbackPolicy is snapshotted when a hotel has not configured terms.
// With no tiers and no default every cancellation is charged in full.
func FallbackPolicy(hotelID string) domain.CancellationPolicy {
	return domain.CancellationPolicy{HotelID: hotelID, Name: "non-refundable"}
}
