package domain

import (
	"net/http"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/apperror"
)

// Invariant violations shared by every inventory component. Callers match them
// with errors.Is and annotate copies with WithState.
var (
	ErrInvalidTransition            = apperror.Invariant(http.StatusConflict, "InvalidTransition", "transition not allowed from current state")
	ErrMissingOverrideJustification = apperror.Invariant(http.StatusUnprocessableEntity, "MissingOverrideJustification", "manager override requires a note")
	ErrHotelMismatch                = apperror.Invariant(http.StatusForbidden, "HotelMismatch", "entity belongs to a different hotel")
	ErrBookingNotConfirmed          = apperror.Invariant(http.StatusConflict, "BookingNotConfirmed", "booking is not confirmed")
	ErrRoomNotSellable              = apperror.Invariant(http.StatusConflict, "RoomNotSellable", "room is not sellable")
	ErrOverlapConflict              = apperror.Invariant(http.StatusConflict, "OverlapConflict", "room is already assigned for an overlapping stay")
	ErrRateOrCapacityExceeded       = apperror.Invariant(http.StatusTooManyRequests, "RateOrCapacityExceeded", "request exceeds the configured ceiling")
	ErrPaymentGatewayTransient      = apperror.Invariant(http.StatusServiceUnavailable, "PaymentGatewayTransient", "payment gateway temporarily unavailable")
	ErrPaymentGatewayRejected       = apperror.Invariant(http.StatusPaymentRequired, "PaymentGatewayRejected", "payment gateway rejected the request")

	ErrNoAvailability = apperror.Invariant(http.StatusConflict, "NoAvailability", "no rooms of this type are available for the requested nights")
	ErrConflict       = apperror.Invariant(http.StatusConflict, "Conflict", "concurrent update detected, retry the request")
	ErrValidation     = apperror.Invariant(http.StatusBadRequest, "ValidationFailed", "invalid input parameters")
)
