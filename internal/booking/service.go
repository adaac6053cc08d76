package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/assignment"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/availability"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/cancellation"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/db"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/hotel"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/notify"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/payment"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/room"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/roomtype"
)

// Service drives a booking through its lifecycle. Every transition is
// idempotent: repeating an applied transition returns the current booking
// with a nil Event and never moves money twice.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Result, error)
	GetByID(ctx context.Context, hotelID, id string) (*domain.Booking, error)
	List(ctx context.Context, filter Filter) ([]*domain.Booking, int, error)

	MarkAuthorized(ctx context.Context, hotelID, bookingID, authorizationRef string) (*Result, error)
	Accept(ctx context.Context, hotelID, bookingID string, actor domain.Actor) (*Result, error)
	Decline(ctx context.Context, hotelID, bookingID string, actor domain.Actor, reason string) (*Result, error)
	Cancel(ctx context.Context, hotelID, bookingID string, actor domain.Actor, reason string, now time.Time) (*Result, error)
	CheckIn(ctx context.Context, hotelID, bookingID string, actor domain.Actor, now time.Time) (*Result, error)
	CheckOut(ctx context.Context, hotelID, bookingID string, actor domain.Actor, now time.Time) (*Result, error)
	MarkNoShow(ctx context.Context, hotelID, bookingID string, actor domain.Actor, now time.Time) (*Result, error)
	BulkCheckOut(ctx context.Context, hotelID string, bookingIDs []string, actor domain.Actor, now time.Time) ([]BulkItemResult, error)

	QuoteCancellation(ctx context.Context, hotelID, bookingID string, now time.Time) (*cancellation.Breakdown, error)
}

// HotelReader resolves hotel settings such as timezone and check-in time.
type HotelReader interface {
	GetByID(ctx context.Context, id string) (*hotel.Hotel, error)
}

// RoomTypeLocker reads room types and takes the acceptance lock.
type RoomTypeLocker interface {
	GetByID(ctx context.Context, hotelID, id string) (*roomtype.RoomType, error)
	LockByID(ctx context.Context, hotelID, id string) (*roomtype.RoomType, error)
}

// PolicyReader returns a hotel's live cancellation policy.
type PolicyReader interface {
	Get(ctx context.Context, hotelID string) (domain.CancellationPolicy, error)
}

// Deps groups the collaborators of the booking service.
type Deps struct {
	Repo         Repository
	Tx           db.TxManager
	Hotels       HotelReader
	RoomTypes    RoomTypeLocker
	Availability availability.Service
	Policies     PolicyReader
	Rooms        room.Service
	Assignments  assignment.Service
	Gateway      payment.Gateway
	Dispatcher   notify.Dispatcher
	Logger       *logrus.Logger
	BulkMaxItems int
	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
}

type service struct {
	Deps
	now func() time.Time
}

func NewService(deps Deps) Service {
	if deps.BulkMaxItems < 1 {
		deps.BulkMaxItems = 50
	}
	now := deps.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{Deps: deps, now: now}
}

func (s *service) GetByID(ctx context.Context, hotelID, id string) (*domain.Booking, error) {
	return s.Repo.GetByID(ctx, hotelID, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*domain.Booking, int, error) {
	if filter.HotelID == "" {
		return nil, 0, domain.ErrValidation.WithMessage("hotel id is required")
	}
	return s.Repo.List(ctx, filter)
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Result, error) {
	// 1. Validate input
	if req.HotelID == "" || req.RoomTypeID == "" || req.GuestID == "" {
		return nil, domain.ErrValidation.WithMessage("hotel, room type and guest are required")
	}
	if err := checkActor(req.Actor, req.HotelID); err != nil {
		return nil, err
	}
	checkIn, checkOut := domain.Date(req.CheckIn), domain.Date(req.CheckOut)
	if !checkIn.Before(checkOut) {
		return nil, domain.ErrValidation.WithMessage("check-out must be after check-in")
	}
	if checkOut.Sub(checkIn) > availability.MaxRangeNights*24*time.Hour {
		return nil, domain.ErrValidation.WithMessage("stay is too long")
	}
	if req.Adults < 1 || req.Children < 0 {
		return nil, domain.ErrValidation.WithMessage("at least one adult is required")
	}
	if req.TotalAmount < 0 {
		return nil, domain.ErrValidation.WithMessage("total amount must not be negative")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return nil, domain.ErrValidation.WithMessage("currency must be an ISO 4217 code")
	}

	// 2. Resolve hotel-local dates
	h, err := s.Hotels.GetByID(ctx, req.HotelID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	today, err := h.LocalDate(now)
	if err != nil {
		return nil, err
	}
	if checkIn.Before(today) {
		return nil, domain.ErrValidation.WithMessage("cannot book a stay in the past")
	}
	arrivalAt, err := h.ArrivalAt(checkIn)
	if err != nil {
		return nil, err
	}

	// 3. Validate room type and occupancy
	rt, err := s.RoomTypes.GetByID(ctx, req.HotelID, req.RoomTypeID)
	if err != nil {
		return nil, err
	}
	if req.Adults+req.Children > rt.MaxOccupancy {
		return nil, domain.ErrValidation.WithMessage(fmt.Sprintf("room type sleeps at most %d guests", rt.MaxOccupancy))
	}

	// 4. Advisory availability check; Accept decides under the lock
	rng, err := s.Availability.ForRange(ctx, req.HotelID, req.RoomTypeID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if !rng.Bookable() {
		return nil, domain.ErrNoAvailability
	}

	// 5. Snapshot the live policy by value
	policy, err := s.Policies.Get(ctx, req.HotelID)
	if err != nil {
		return nil, err
	}

	b := &domain.Booking{
		HotelID:        req.HotelID,
		RoomTypeID:     req.RoomTypeID,
		GuestID:        req.GuestID,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		ArrivalAt:      arrivalAt,
		Adults:         req.Adults,
		Children:       req.Children,
		Status:         domain.BookingPendingPayment,
		TotalAmount:    req.TotalAmount,
		Currency:       currency,
		PolicySnapshot: policy.Clone(),
	}
	b.AddNote(now, req.Actor.ID, "booking created")

	if err := s.Repo.Create(ctx, b); err != nil {
		return nil, err
	}

	res := &Result{
		Booking: b,
		Event:   domain.NewEvent(EventCreated, b.HotelID, domain.EntityBooking, b.ID, "", string(b.Status), req.Actor.ID, now),
	}
	s.Dispatcher.Dispatch(res.events()...)
	return res, nil
}

func (s *service) MarkAuthorized(ctx context.Context, hotelID, bookingID, authorizationRef string) (*Result, error) {
	authorizationRef = strings.TrimSpace(authorizationRef)
	if authorizationRef == "" {
		return nil, domain.ErrValidation.WithMessage("authorization reference is required")
	}
	actor := domain.SystemActor(hotelID, "payment-webhook")

	var res *Result
	err := s.Tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.Repo.LockByID(ctx, hotelID, bookingID)
		if err != nil {
			return err
		}

		// Duplicate webhook deliveries
		if b.AuthorizationRef != nil && *b.AuthorizationRef == authorizationRef {
			res = &Result{Booking: b}
			return nil
		}
		if b.Status != domain.BookingPendingPayment {
			return domain.ErrInvalidTransition.WithState(string(b.Status), string(domain.BookingPendingApproval))
		}

		now := s.now()
		from := b.Status
		b.AuthorizationRef = &authorizationRef
		b.Status = domain.BookingPendingApproval
		b.AddNote(now, actor.ID, "payment authorized")
		if err := s.Repo.Update(ctx, b); err != nil {
			return err
		}
		res = &Result{
			Booking: b,
			Event:   domain.NewEvent(EventAuthorized, hotelID, domain.EntityBooking, b.ID, string(from), string(b.Status), actor.ID, now),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Dispatcher.Dispatch(res.events()...)
	return res, nil
}

func (s *service) Accept(ctx context.Context, hotelID, bookingID string, actor domain.Actor) (*Result, error) {
	if err := checkActor(actor, hotelID); err != nil {
		return nil, err
	}

	current, err := s.Repo.GetByID(ctx, hotelID, bookingID)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	err = s.Tx.WithTx(ctx, func(ctx context.Context) error {
		// Lock order: room type, then booking.
		if _, err := s.RoomTypes.LockByID(ctx, hotelID, current.RoomTypeID); err != nil {
			return err
		}
		b, err := s.Repo.LockByID(ctx, hotelID, bookingID)
		if err != nil {
			return err
		}
		res.Booking = b

		switch b.Status {
		case domain.BookingConfirmed:
			return nil
		case domain.BookingPendingApproval:
		default:
			return domain.ErrInvalidTransition.WithState(string(b.Status), string(domain.BookingConfirmed))
		}

		// Confirmations are serialized by the room type lock, so this
		// count cannot go stale before commit.
		rng, err := s.Availability.ForRange(ctx, hotelID, b.RoomTypeID, b.CheckIn, b.CheckOut)
		if err != nil {
			return err
		}
		if !rng.Bookable() {
			return domain.ErrNoAvailability
		}

		now := s.now()
		from := b.Status
		b.Status = domain.BookingConfirmed
		b.AddNote(now, actor.ID, "booking accepted")
		if err := s.Repo.Update(ctx, b); err != nil {
			return err
		}
		res.Event = domain.NewEvent(EventConfirmed, hotelID, domain.EntityBooking, b.ID, string(from), string(b.Status), actor.ID, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Dispatcher.Dispatch(res.Event)

	if res.Booking.Status != domain.BookingConfirmed || res.Booking.IsCaptured() {
		return res, nil
	}

	// Capture happens after commit; a transient failure leaves the booking
	// confirmed and a repeated Accept retries with the same key.
	captured, err := s.capture(ctx, res.Booking, actor)
	if err != nil {
		return nil, err
	}
	res.Booking = captured.Booking
	res.relate(captured.Event)

	if res.Booking.AssignedRoomID == nil {
		assigned, err := s.Assignments.AutoAssign(ctx, hotelID, bookingID, actor)
		if err != nil {
			s.Logger.WithFields(logrus.Fields{
				"hotel_id":   hotelID,
				"booking_id": bookingID,
			}).WithError(err).Warn("auto-assign after acceptance failed")
		} else {
			res.Booking = assigned.Booking
			res.relate(assigned.Event)
		}
	}
	return res, nil
}

// capture takes the authorized money and records the capture reference.
func (s *service) capture(ctx context.Context, b *domain.Booking, actor domain.Actor) (*Result, error) {
	if b.AuthorizationRef == nil {
		return nil, domain.ErrInvalidTransition.WithMessage("booking has no payment authorization")
	}
	log := s.Logger.WithFields(logrus.Fields{"hotel_id": b.HotelID, "booking_id": b.ID})

	ref, err := s.Gateway.Capture(ctx, payment.Key(b.ID, payment.OpCapture), *b.AuthorizationRef)
	switch {
	case err == nil:
	case errors.Is(err, payment.ErrAlreadyCaptured):
		// An earlier attempt went through but its response was lost.
		log.WithError(err).Warn("authorization already captured, recording authorization as capture reference")
		ref = *b.AuthorizationRef
	case payment.IsTransient(err):
		log.WithError(err).Warn("payment capture failed, booking stays confirmed without capture")
		return nil, err
	default:
		log.WithError(err).Warn("payment capture rejected, cancelling booking")
		if _, cerr := s.cancelUncaptured(ctx, b.HotelID, b.ID, actor, "payment capture rejected: "+payment.Reason(err)); cerr != nil {
			log.WithError(cerr).Error("cancel after rejected capture failed")
		}
		return nil, err
	}

	res := &Result{}
	err = s.Tx.WithTx(ctx, func(ctx context.Context) error {
		locked, err := s.Repo.LockByID(ctx, b.HotelID, b.ID)
		if err != nil {
			return err
		}
		res.Booking = locked
		if locked.IsCaptured() {
			return nil
		}
		now := s.now()
		locked.CaptureRef = &ref
		locked.AddNote(now, actor.ID, "payment captured")
		if err := s.Repo.Update(ctx, locked); err != nil {
			return err
		}
		res.Event = domain.NewEvent(EventCaptured, b.HotelID, domain.EntityBooking, b.ID, "AUTHORIZED", "CAPTURED", actor.ID, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Dispatcher.Dispatch(res.Event)
	return res, nil
}

// cancelUncaptured cancels a confirmed booking whose capture was refused.
// Nothing was charged, so fee and refund are both zero.
func (s *service) cancelUncaptured(ctx context.Context, hotelID, bookingID string, actor domain.Actor, reason string) (*Result, error) {
	res := &Result{}
	err := s.Tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.Repo.LockByID(ctx, hotelID, bookingID)
		if err != nil {
			return err
		}
		res.Booking = b
		if b.Status != domain.BookingConfirmed || b.IsCaptured() || b.InStay() {
			return nil
		}
		released, err := s.Assignments.Release(ctx, b)
		if err != nil {
			return err
		}
		now := s.now()
		from := b.Status
		var zero int64
		b.Status = domain.BookingCancelled
		b.CancelledAt = &now
		b.CancellationReason = &reason
		b.CancellationFee = &zero
		b.RefundAmount = &zero
		b.AssignedRoomID = nil
		b.AddNote(now, actor.ID, reason)
		if err := s.Repo.Update(ctx, b); err != nil {
			return err
		}
		res.Event = domain.NewEvent(EventCancelled, hotelID, domain.EntityBooking, b.ID, string(from), string(b.Status), actor.ID, now)
		if released != nil {
			s.Logger.WithFields(logrus.Fields{"booking_id": b.ID, "room_id": released.ID}).Info("room released")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Dispatcher.Dispatch(res.Event)
	return res, nil
}

func (s *service) Decline(ctx context.Context, hotelID, bookingID string, actor domain.Actor, reason string) (*Result, error) {
	if err := checkActor(actor, hotelID); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)

	b, err := s.Repo.GetByID(ctx, hotelID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status == domain.BookingDeclined {
		return &Result{Booking: b}, nil
	}
	if b.Status != domain.BookingPendingApproval {
		return nil, domain.ErrInvalidTransition.WithState(string(b.Status), string(domain.BookingDeclined))
	}

	// Release the hold before the locked write. A refused void is final, so
	// the booking is declined anyway and the refusal kept on record.
	voided, err := s.void(ctx, b)
	var rejection string
	if err != nil {
		if !payment.IsRejected(err) {
			return nil, err
		}
		rejection = "payment void rejected: " + payment.Reason(err)
		s.Logger.WithFields(logrus.Fields{
			"hotel_id":   hotelID,
			"booking_id": bookingID,
		}).WithError(err).Warn("void rejected by payment gateway, declining anyway")
	}
	reason = joinReasons(reason, rejection)

	res := &Result{}
	err = s.Tx.WithTx(ctx, func(ctx context.Context) error {
		locked, err := s.Repo.LockByID(ctx, hotelID, bookingID)
		if err != nil {
			return err
		}
		res.Booking = locked
		if locked.Status == domain.BookingDeclined {
			return nil
		}
		if locked.Status != domain.BookingPendingApproval {
			return domain.ErrConflict.WithState(string(locked.Status), string(domain.BookingDeclined))
		}

		now := s.now()
		from := locked.Status
		locked.Status = domain.BookingDeclined
		if reason != "" {
			locked.DeclineReason = &reason
		}
		if voided {
			locked.VoidedAt = &now
		}
		locked.AddNote(now, actor.ID, noteText("booking declined", reason))
		if err := s.Repo.Update(ctx, locked); err != nil {
			return err
		}
		res.Event = domain.NewEvent(EventDeclined, hotelID, domain.EntityBooking, locked.ID, string(from), string(locked.Status), actor.ID, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Dispatcher.Dispatch(res.events()...)
	return res, nil
}

// void releases an uncaptured authorization. It reports whether the hold is
// gone; an expired or already voided authorization counts as released.
func (s *service) void(ctx context.Context, b *domain.Booking) (bool, error) {
	if b.AuthorizationRef == nil || b.IsCaptured() {
		return false, nil
	}
	if b.VoidedAt != nil {
		return true, nil
	}
	err := s.Gateway.Void(ctx, payment.Key(b.ID, payment.OpVoid), *b.AuthorizationRef)
	if err == nil || errors.Is(err, payment.ErrAlreadyVoided) || errors.Is(err, payment.ErrAuthorizationExpired) {
		return true, nil
	}
	return false, err
}

func (s *service) Cancel(ctx context.Context, hotelID, bookingID string, actor domain.Actor, reason string, now time.Time) (*Result, error) {
	if err := checkActor(actor, hotelID); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	now = now.UTC()

	b, err := s.Repo.GetByID(ctx, hotelID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status == domain.BookingCancelled {
		return &Result{Booking: b}, nil
	}
	if !cancellable(b) {
		return nil, domain.ErrInvalidTransition.WithState(string(b.Status), string(domain.BookingCancelled))
	}

	// Money moves before the locked write. Keys are derived from the booking,
	// so a retry after a failure further down never refunds twice.
	// A rejected refund or void is final: the booking is still cancelled,
	// with the refusal recorded for staff to settle by hand.
	var (
		fee, refund int64
		refundRef   *string
		voided      bool
		rejection   string
	)
	switch {
	case b.IsCaptured():
		bd := cancellation.Calculate(b.PolicySnapshot, b, now)
		fee, refund = bd.Fee, bd.Refund
		if refund > 0 {
			rr, err := s.Gateway.Refund(ctx, payment.Key(b.ID, payment.OpRefund), *b.CaptureRef, refund)
			switch {
			case err == nil:
				refund = rr.Amount
				refundRef = &rr.Ref
			case payment.IsRejected(err):
				rejection = fmt.Sprintf("refund of %d %s rejected: %s", refund, b.Currency, payment.Reason(err))
				refund = 0
			default:
				return nil, err
			}
		}
	case b.AuthorizationRef != nil:
		voided, err = s.void(ctx, b)
		if err != nil {
			if !payment.IsRejected(err) {
				return nil, err
			}
			rejection = "payment void rejected: " + payment.Reason(err)
		}
	}
	if rejection != "" {
		s.Logger.WithFields(logrus.Fields{
			"hotel_id":   hotelID,
			"booking_id": bookingID,
		}).Error(rejection + ", cancelling anyway")
		reason = joinReasons(reason, rejection)
	}

	res := &Result{}
	err = s.Tx.WithTx(ctx, func(ctx context.Context) error {
		locked, err := s.Repo.LockByID(ctx, hotelID, bookingID)
		if err != nil {
			return err
		}
		res.Booking = locked
		if locked.Status == domain.BookingCancelled {
			return nil
		}
		if locked.Status != b.Status || locked.IsCaptured() != b.IsCaptured() || locked.InStay() {
			return domain.ErrConflict.WithState(string(locked.Status), string(domain.BookingCancelled))
		}

		released, err := s.Assignments.Release(ctx, locked)
		if err != nil {
			return err
		}

		from := locked.Status
		locked.Status = domain.BookingCancelled
		locked.CancelledAt = &now
		if reason != "" {
			locked.CancellationReason = &reason
		}
		locked.CancellationFee = &fee
		locked.RefundAmount = &refund
		locked.RefundRef = refundRef
		if voided {
			locked.VoidedAt = &now
		}
		locked.AssignedRoomID = nil
		locked.AddNote(now, actor.ID, noteText(fmt.Sprintf("booking cancelled (fee %d, refund %d %s)", fee, refund, locked.Currency), reason))
		if err := s.Repo.Update(ctx, locked); err != nil {
			return err
		}

		res.Event = domain.NewEvent(EventCancelled, hotelID, domain.EntityBooking, locked.ID, string(from), string(locked.Status), actor.ID, now)
		if released != nil {
			res.relate(domain.NewEvent(assignment.EventRoomUnassigned, hotelID, domain.EntityBooking, locked.ID, released.Number, "", actor.ID, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithFields(logrus.Fields{
		"hotel_id":   hotelID,
		"booking_id": bookingID,
		"fee":        fee,
		"refund":     refund,
	}).Info("booking cancelled")

	s.Dispatcher.Dispatch(res.events()...)
	return res, nil
}

func (s *service) CheckIn(ctx context.Context, hotelID, bookingID string, actor domain.Actor, now time.Time) (*Result, error) {
	if err := checkActor(actor, hotelID); err != nil {
		return nil, err
	}
	now = now.UTC()

	b, err := s.Repo.GetByID(ctx, hotelID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CheckedInAt != nil {
		return &Result{Booking: b}, nil
	}
	if b.Status != domain.BookingConfirmed {
		return nil, domain.ErrInvalidTransition.WithState(string(b.Status), "CHECKED_IN")
	}

	h, err := s.Hotels.GetByID(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	today, err := h.LocalDate(now)
	if err != nil {
		return nil, err
	}
	if today.Before(b.CheckIn) || !today.Before(b.CheckOut) {
		return nil, domain.ErrInvalidTransition.
			WithMessage("check-in is only possible between the arrival and departure dates").
			WithState(string(b.Status), "CHECKED_IN")
	}

	// AutoAssign publishes its own event.
	var assignedEvent *domain.Event
	if b.AssignedRoomID == nil {
		assigned, err := s.Assignments.AutoAssign(ctx, hotelID, bookingID, actor)
		if err != nil {
			return nil, err
		}
		assignedEvent = assigned.Event
	}

	res := &Result{}

	err = s.Tx.WithTx(ctx, func(ctx context.Context) error {
		locked, err := s.Repo.LockByID(ctx, hotelID, bookingID)
		if err != nil {
			return err
		}
		res.Booking = locked
		if locked.CheckedInAt != nil {
			return nil
		}
		if locked.Status != domain.BookingConfirmed || locked.AssignedRoomID == nil {
			return domain.ErrConflict.WithState(string(locked.Status), "CHECKED_IN")
		}

		if _, err := s.Assignments.Claim(ctx, locked, actor); err != nil {
			return err
		}

		id := locked.ID
		flipped, err := s.Rooms.Apply(ctx, room.TransitionRequest{
			HotelID:   hotelID,
			RoomID:    *locked.AssignedRoomID,
			To:        domain.RoomOccupied,
			Actor:     actor,
			Source:    domain.SourceAutomated,
			Note:      "guest checked in",
			BookingID: &id,
		})
		if err != nil {
			return err
		}

		locked.CheckedInAt = &now
		locked.AddNote(now, actor.ID, fmt.Sprintf("checked in to room %s", flipped.Room.Number))
		if err := s.Repo.Update(ctx, locked); err != nil {
			return err
		}
		res.Event = domain.NewEvent(EventCheckedIn, hotelID, domain.EntityBooking, id, string(locked.Status), "CHECKED_IN", actor.ID, now)
		res.relate(flipped.Event)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Dispatcher.Dispatch(res.events()...)
	res.relate(assignedEvent)
	return res, nil
}

func (s *service) CheckOut(ctx context.Context, hotelID, bookingID string, actor domain.Actor, now time.Time) (*Result, error) {
	if err := checkActor(actor, hotelID); err != nil {
		return nil, err
	}
	now = now.UTC()

	res := &Result{}
	err := s.Tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.Repo.LockByID(ctx, hotelID, bookingID)
		if err != nil {
			return err
		}
		res.Booking = b
		if b.Status == domain.BookingCompleted {
			return nil
		}
		if b.Status != domain.BookingConfirmed || b.CheckedInAt == nil {
			return domain.ErrInvalidTransition.WithState(string(b.Status), string(domain.BookingCompleted))
		}

		released, err := s.Assignments.Release(ctx, b)
		if err != nil {
			return err
		}
		if released != nil && released.TurnoverStatus == domain.RoomOccupied {
			id := b.ID
			flipped, err := s.Rooms.Apply(ctx, room.TransitionRequest{
				HotelID:   hotelID,
				RoomID:    released.ID,
				To:        domain.RoomCheckoutDirty,
				Actor:     actor,
				Source:    domain.SourceAutomated,
				Note:      "guest checked out",
				BookingID: &id,
			})
			if err != nil {
				return err
			}
			res.relate(flipped.Event)
		}

		from := b.Status
		b.CheckedOutAt = &now
		b.Status = domain.BookingCompleted
		b.AddNote(now, actor.ID, "checked out")
		if err := s.Repo.Update(ctx, b); err != nil {
			return err
		}
		res.Event = domain.NewEvent(EventCheckedOut, hotelID, domain.EntityBooking, b.ID, string(from), string(b.Status), actor.ID, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Dispatcher.Dispatch(res.events()...)
	return res, nil
}

func (s *service) MarkNoShow(ctx context.Context, hotelID, bookingID string, actor domain.Actor, now time.Time) (*Result, error) {
	if err := checkActor(actor, hotelID); err != nil {
		return nil, err
	}
	now = now.UTC()

	h, err := s.Hotels.GetByID(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	today, err := h.LocalDate(now)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	err = s.Tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.Repo.LockByID(ctx, hotelID, bookingID)
		if err != nil {
			return err
		}
		res.Booking = b
		if b.Status == domain.BookingNoShow {
			return nil
		}
		if b.Status != domain.BookingConfirmed || b.CheckedInAt != nil {
			return domain.ErrInvalidTransition.WithState(string(b.Status), string(domain.BookingNoShow))
		}
		if !today.After(b.CheckIn) {
			return domain.ErrInvalidTransition.
				WithMessage("a no-show can only be recorded after the arrival date").
				WithState(string(b.Status), string(domain.BookingNoShow))
		}

		released, err := s.Assignments.Release(ctx, b)
		if err != nil {
			return err
		}

		from := b.Status
		b.Status = domain.BookingNoShow
		b.AssignedRoomID = nil
		b.AddNote(now, actor.ID, "marked as no-show")
		if err := s.Repo.Update(ctx, b); err != nil {
			return err
		}
		res.Event = domain.NewEvent(EventNoShow, hotelID, domain.EntityBooking, b.ID, string(from), string(b.Status), actor.ID, now)
		if released != nil {
			res.relate(domain.NewEvent(assignment.EventRoomUnassigned, hotelID, domain.EntityBooking, b.ID, released.Number, "", actor.ID, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Dispatcher.Dispatch(res.events()...)
	return res, nil
}

func (s *service) BulkCheckOut(ctx context.Context, hotelID string, bookingIDs []string, actor domain.Actor, now time.Time) ([]BulkItemResult, error) {
	if len(bookingIDs) > s.BulkMaxItems {
		return nil, domain.ErrRateOrCapacityExceeded.
			WithMessage(fmt.Sprintf("bulk check-out accepts at most %d bookings", s.BulkMaxItems)).
			WithState(strconv.Itoa(len(bookingIDs)), strconv.Itoa(s.BulkMaxItems))
	}
	if err := checkActor(actor, hotelID); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(bookingIDs))
	results := make([]BulkItemResult, 0, len(bookingIDs))
	for _, id := range bookingIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		res, err := s.CheckOut(ctx, hotelID, id, actor, now)
		if err != nil {
			s.Logger.WithFields(logrus.Fields{
				"hotel_id":   hotelID,
				"booking_id": id,
			}).WithError(err).Warn("bulk check-out item failed")
		}
		results = append(results, BulkItemResult{BookingID: id, Result: res, Err: err})
	}
	return results, nil
}

func (s *service) QuoteCancellation(ctx context.Context, hotelID, bookingID string, now time.Time) (*cancellation.Breakdown, error) {
	b, err := s.Repo.GetByID(ctx, hotelID, bookingID)
	if err != nil {
		return nil, err
	}
	if !cancellable(b) {
		return nil, domain.ErrInvalidTransition.WithState(string(b.Status), string(domain.BookingCancelled))
	}

	bd := cancellation.Calculate(b.PolicySnapshot, b, now.UTC())
	if !b.IsCaptured() {
		bd.Fee = 0
		bd.Refund = 0
		bd.Description = "no payment captured; the authorization will be released"
	}
	return &bd, nil
}

func cancellable(b *domain.Booking) bool {
	if b.InStay() {
		return false
	}
	switch b.Status {
	case domain.BookingPendingPayment, domain.BookingPendingApproval, domain.BookingConfirmed:
		return true
	}
	return false
}

func checkActor(actor domain.Actor, hotelID string) error {
	if actor.ID == "" {
		return domain.ErrValidation.WithMessage("actor is required")
	}
	if actor.HotelID != "" && actor.HotelID != hotelID {
		return domain.ErrHotelMismatch
	}
	return nil
}

func joinReasons(reasons ...string) string {
	var kept []string
	for _, r := range reasons {
		if r != "" {
			kept = append(kept, r)
		}
	}
	return strings.Join(kept, "; ")
}

func noteText(action, detail string) string {
	if detail == "" {
		return action
	}
	return action + ": " + detail
}
