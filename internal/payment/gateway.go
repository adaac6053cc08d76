package payment

import (
	"context"
	"errors"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/apperror"
)

// Gateway errors. They reach callers wrapped in either
// domain.ErrPaymentGatewayTransient or domain.ErrPaymentGatewayRejected.
var (
	ErrAlreadyCaptured      = errors.New("authorization already captured")
	ErrAuthorizationExpired = errors.New("authorization expired")
	ErrAlreadyVoided        = errors.New("authorization already voided")
	ErrInsufficientCaptured = errors.New("refund exceeds captured amount")
)

// Operation names used to derive idempotency keys.
const (
	OpAuthorize = "authorize"
	OpCapture   = "capture"
	OpVoid      = "void"
	OpRefund    = "refund"
)

// Key returns the idempotency key for one money movement on a booking.
// The same booking and operation always map to the same key, so a retried
// transition never charges or refunds twice.
func Key(bookingID, op string) string {
	return bookingID + ":" + op
}

type RefundResult struct {
	Ref    string
	Amount int64
}

// Gateway is the external payment processor.
type Gateway interface {
	Authorize(ctx context.Context, key string, amount int64, currency string) (string, error)
	Capture(ctx context.Context, key, authRef string) (string, error)
	Void(ctx context.Context, key, authRef string) error
	Refund(ctx context.Context, key, captureRef string, amount int64) (RefundResult, error)
}

// Transient marks err as safe to retry.
func Transient(err error) error {
	return domain.ErrPaymentGatewayTransient.Wrap(err)
}

// Rejected marks err as a terminal refusal.
func Rejected(err error) error {
	return domain.ErrPaymentGatewayRejected.Wrap(err)
}

// IsTransient reports whether err may be retried with the same key.
func IsTransient(err error) bool {
	return errors.Is(err, domain.ErrPaymentGatewayTransient)
}

// IsRejected reports whether the gateway refused the request for good.
// Repeating it with the same key gets the same answer.
func IsRejected(err error) bool {
	return errors.Is(err, domain.ErrPaymentGatewayRejected)
}

// Reason returns the gateway's own explanation for err, without the
// classification wrapper.
func Reason(err error) string {
	var ae *apperror.AppError
	if errors.As(err, &ae) && ae.Err != nil {
		return ae.Err.Error()
	}
	return err.Error()
}
