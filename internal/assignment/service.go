package assignment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/db"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/notify"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/room"
)

// Service links physical rooms to confirmed bookings.
type Service interface {
	FindCandidates(ctx context.Context, hotelID, bookingID string) ([]*domain.Room, error)
	Assign(ctx context.Context, req AssignRequest) (*Result, error)
	Unassign(ctx context.Context, req UnassignRequest) (*Result, error)
	// AutoAssign tries candidates in room number order and returns the first
	// successful assignment.
	AutoAssign(ctx context.Context, hotelID, bookingID string, actor domain.Actor) (*Result, error)
	// Release clears the room side of b's assignment. It must run inside the
	// caller's transaction after b has been locked; b itself is not written.
	Release(ctx context.Context, b *domain.Booking) (*domain.Room, error)
	// Claim points b's assigned room back at b before the guest moves in.
	// A room may hold several future stays, and its pointer follows the one
	// that claimed it last. Claim must run inside the caller's transaction
	// after b has been locked.
	Claim(ctx context.Context, b *domain.Booking, actor domain.Actor) (*domain.Room, error)
}

type service struct {
	rooms      RoomRepository
	bookings   BookingRepository
	tx         db.TxManager
	dispatcher notify.Dispatcher
	logger     *logrus.Logger
	now        func() time.Time
}

func NewService(rooms RoomRepository, bookings BookingRepository, tx db.TxManager, dispatcher notify.Dispatcher, logger *logrus.Logger) Service {
	return &service{
		rooms:      rooms,
		bookings:   bookings,
		tx:         tx,
		dispatcher: dispatcher,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) FindCandidates(ctx context.Context, hotelID, bookingID string) ([]*domain.Room, error) {
	b, err := s.bookings.GetByID(ctx, hotelID, bookingID)
	if err != nil {
		return nil, err
	}

	rooms, _, err := s.rooms.List(ctx, room.Filter{
		HotelID:      hotelID,
		RoomTypeID:   b.RoomTypeID,
		SellableOnly: true,
		PageSize:     -1,
		SortBy:       "number",
		SortOrder:    "ASC",
	})
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, nil
	}

	ids := make([]string, len(rooms))
	for i, r := range rooms {
		ids[i] = r.ID
	}
	busy, err := s.bookings.ListAssignedOverlapping(ctx, hotelID, ids, b.CheckIn, b.CheckOut, b.ID)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(busy))
	for _, other := range busy {
		if other.AssignedRoomID != nil {
			taken[*other.AssignedRoomID] = true
		}
	}

	candidates := make([]*domain.Room, 0, len(rooms))
	for _, r := range rooms {
		if !taken[r.ID] && r.IsSellable() {
			candidates = append(candidates, r)
		}
	}
	return candidates, nil
}

func (s *service) Assign(ctx context.Context, req AssignRequest) (*Result, error) {
	if req.HotelID == "" || req.RoomID == "" || req.BookingID == "" || req.Actor.ID == "" {
		return nil, domain.ErrValidation.WithMessage("hotel, room, booking and actor are required")
	}
	if req.Actor.HotelID != "" && req.Actor.HotelID != req.HotelID {
		return nil, domain.ErrHotelMismatch
	}

	// Advisory pre-check; the decision is made again under the locks.
	if err := s.precheck(ctx, req); err != nil {
		return nil, err
	}

	var res *Result
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.assignLocked(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(res.Event)
	return res, nil
}

func (s *service) precheck(ctx context.Context, req AssignRequest) error {
	b, err := s.bookings.GetByID(ctx, req.HotelID, req.BookingID)
	if err != nil {
		return err
	}
	if b.AssignedRoomID != nil && *b.AssignedRoomID == req.RoomID {
		return nil
	}
	r, err := s.rooms.GetByID(ctx, req.HotelID, req.RoomID)
	if err != nil {
		return err
	}
	return AssertAssignable(r, b, false)
}

func (s *service) assignLocked(ctx context.Context, req AssignRequest) (*Result, error) {
	b, err := s.bookings.LockByID(ctx, req.HotelID, req.BookingID)
	if err != nil {
		return nil, err
	}

	if b.AssignedRoomID != nil && *b.AssignedRoomID == req.RoomID {
		// Same room: nothing to publish, but the room pointer may have moved
		// on to a later stay.
		r, err := s.claimLocked(ctx, b, req.Actor.ID)
		if err != nil {
			return nil, err
		}
		return &Result{Room: r, Booking: b}, nil
	}
	if b.InStay() {
		return nil, domain.ErrInvalidTransition.
			WithMessage("cannot move a guest who is checked in").
			WithState("IN_STAY", "REASSIGNED")
	}

	ids := []string{req.RoomID}
	if b.AssignedRoomID != nil {
		ids = append(ids, *b.AssignedRoomID)
	}
	sort.Strings(ids)

	locked, err := s.rooms.LockByIDs(ctx, req.HotelID, ids)
	if err != nil {
		return nil, err
	}
	var target, previous *domain.Room
	for _, r := range locked {
		if r.ID == req.RoomID {
			target = r
		} else {
			previous = r
		}
	}
	if target == nil {
		return nil, room.ErrNotFound
	}

	overlapping, err := s.bookings.ListAssignedOverlapping(ctx, req.HotelID, []string{target.ID}, b.CheckIn, b.CheckOut, b.ID)
	if err != nil {
		return nil, err
	}
	if err := AssertAssignable(target, b, len(overlapping) > 0); err != nil {
		return nil, err
	}

	now := s.now()
	bookingID := b.ID
	actorID := req.Actor.ID
	target.AssignmentVersion++
	target.AssignedBookingID = &bookingID
	target.AssignedAt = &now
	target.AssignedBy = &actorID
	if err := s.rooms.UpdateAssignment(ctx, target); err != nil {
		return nil, err
	}

	from := ""
	if previous != nil {
		from = previous.Number
		if previous.AssignedBookingID != nil && *previous.AssignedBookingID == b.ID {
			previous.ClearAssignment()
			previous.AssignmentVersion++
			if err := s.rooms.UpdateAssignment(ctx, previous); err != nil {
				return nil, err
			}
		}
	}

	roomID := target.ID
	b.AssignedRoomID = &roomID
	b.AddNote(now, actorID, noteText(fmt.Sprintf("assigned room %s", target.Number), req.Notes))
	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"hotel_id":           req.HotelID,
		"booking_id":         b.ID,
		"room_id":            target.ID,
		"assignment_version": target.AssignmentVersion,
		"actor_id":           actorID,
	}).Info("room assigned")

	return &Result{
		Room:    target,
		Booking: b,
		Event:   domain.NewEvent(EventRoomAssigned, req.HotelID, domain.EntityBooking, b.ID, from, target.Number, actorID, now),
	}, nil
}

func (s *service) Unassign(ctx context.Context, req UnassignRequest) (*Result, error) {
	if req.HotelID == "" || req.RoomID == "" || req.Actor.ID == "" {
		return nil, domain.ErrValidation.WithMessage("hotel, room and actor are required")
	}
	if req.Actor.HotelID != "" && req.Actor.HotelID != req.HotelID {
		return nil, domain.ErrHotelMismatch
	}

	var res *Result
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.rooms.GetByID(ctx, req.HotelID, req.RoomID)
		if err != nil {
			return err
		}
		if current.AssignedBookingID == nil {
			res = &Result{Room: current}
			return nil
		}
		bookingID := *current.AssignedBookingID

		// Booking before room, matching Assign's lock order.
		b, err := s.bookings.LockByID(ctx, req.HotelID, bookingID)
		if err != nil {
			return err
		}
		locked, err := s.rooms.LockByIDs(ctx, req.HotelID, []string{req.RoomID})
		if err != nil {
			return err
		}
		r := locked[0]
		if r.AssignedBookingID == nil || *r.AssignedBookingID != bookingID {
			return domain.ErrConflict
		}
		if b.InStay() {
			return domain.ErrInvalidTransition.
				WithMessage("cannot unassign the room of a checked-in guest").
				WithState("IN_STAY", "UNASSIGNED")
		}

		now := s.now()
		r.ClearAssignment()
		r.AssignmentVersion++
		if err := s.rooms.UpdateAssignment(ctx, r); err != nil {
			return err
		}

		if b.AssignedRoomID != nil && *b.AssignedRoomID == r.ID {
			b.AssignedRoomID = nil
			b.AddNote(now, req.Actor.ID, noteText(fmt.Sprintf("unassigned room %s", r.Number), req.Notes))
			if err := s.bookings.Update(ctx, b); err != nil {
				return err
			}
		}

		res = &Result{
			Room:    r,
			Booking: b,
			Event:   domain.NewEvent(EventRoomUnassigned, req.HotelID, domain.EntityBooking, b.ID, r.Number, "", req.Actor.ID, now),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(res.Event)
	return res, nil
}

func (s *service) AutoAssign(ctx context.Context, hotelID, bookingID string, actor domain.Actor) (*Result, error) {
	b, err := s.bookings.GetByID(ctx, hotelID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.AssignedRoomID != nil {
		return s.Assign(ctx, AssignRequest{HotelID: hotelID, RoomID: *b.AssignedRoomID, BookingID: bookingID, Actor: actor})
	}

	candidates, err := s.FindCandidates(ctx, hotelID, bookingID)
	if err != nil {
		return nil, err
	}

	for _, r := range candidates {
		res, err := s.Assign(ctx, AssignRequest{
			HotelID:   hotelID,
			RoomID:    r.ID,
			BookingID: bookingID,
			Actor:     actor,
			Notes:     "auto-assigned",
		})
		if err == nil {
			return res, nil
		}
		if errors.Is(err, domain.ErrOverlapConflict) || errors.Is(err, domain.ErrRoomNotSellable) || errors.Is(err, domain.ErrConflict) {
			s.logger.WithFields(logrus.Fields{
				"hotel_id":   hotelID,
				"booking_id": bookingID,
				"room_id":    r.ID,
			}).WithError(err).Debug("auto-assign candidate lost, trying next")
			continue
		}
		return nil, err
	}
	return nil, domain.ErrNoAvailability.WithMessage("no room of this type can be assigned for the stay")
}

func (s *service) Release(ctx context.Context, b *domain.Booking) (*domain.Room, error) {
	if b.AssignedRoomID == nil {
		return nil, nil
	}
	locked, err := s.rooms.LockByIDs(ctx, b.HotelID, []string{*b.AssignedRoomID})
	if err != nil {
		return nil, err
	}
	r := locked[0]
	if r.AssignedBookingID == nil || *r.AssignedBookingID != b.ID {
		// Already handed to a later booking.
		return r, nil
	}
	r.ClearAssignment()
	r.AssignmentVersion++
	if err := s.rooms.UpdateAssignment(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *service) Claim(ctx context.Context, b *domain.Booking, actor domain.Actor) (*domain.Room, error) {
	if b.AssignedRoomID == nil {
		return nil, domain.ErrConflict.WithMessage("booking has no assigned room")
	}
	return s.claimLocked(ctx, b, actor.ID)
}

func (s *service) claimLocked(ctx context.Context, b *domain.Booking, actorID string) (*domain.Room, error) {
	locked, err := s.rooms.LockByIDs(ctx, b.HotelID, []string{*b.AssignedRoomID})
	if err != nil {
		return nil, err
	}
	r := locked[0]
	if r.AssignedBookingID != nil && *r.AssignedBookingID == b.ID {
		return r, nil
	}

	// Ownership comes from the booking side; the room pointer only follows.
	overlapping, err := s.bookings.ListAssignedOverlapping(ctx, b.HotelID, []string{r.ID}, b.CheckIn, b.CheckOut, b.ID)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, domain.ErrOverlapConflict.WithState(r.Number, b.ID)
	}

	now := s.now()
	bookingID := b.ID
	r.AssignmentVersion++
	r.AssignedBookingID = &bookingID
	r.AssignedAt = &now
	r.AssignedBy = &actorID
	if err := s.rooms.UpdateAssignment(ctx, r); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"hotel_id":           b.HotelID,
		"booking_id":         b.ID,
		"room_id":            r.ID,
		"assignment_version": r.AssignmentVersion,
	}).Info("room pointer moved to booking")
	return r, nil
}

func noteText(action, notes string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return action
	}
	return action + ": " + notes
}
