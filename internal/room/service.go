package room

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/db"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/notify"
)

// Service defines business logic for rooms. It is the only writer of turnover_status.
type Service interface {
	GetByID(ctx context.Context, hotelID, id string) (*domain.Room, error)
	List(ctx context.Context, filter Filter) ([]*domain.Room, int, error)
	History(ctx context.Context, hotelID, roomID string, filter EventFilter) ([]*domain.RoomStatusEvent, int, error)

	// Transition runs Apply in its own transaction and publishes the event after commit.
	Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error)
	// Apply locks the room and performs the transition inside the caller's
	// transaction. The caller publishes the returned event once it commits.
	Apply(ctx context.Context, req TransitionRequest) (*TransitionResult, error)

	StartCleaning(ctx context.Context, hotelID, roomID string, actor domain.Actor) (*TransitionResult, error)
	MarkCleaned(ctx context.Context, hotelID, roomID string, actor domain.Actor) (*TransitionResult, error)
	Inspect(ctx context.Context, hotelID, roomID string, actor domain.Actor, passed bool, note string) (*TransitionResult, error)
	ReportMaintenance(ctx context.Context, hotelID, roomID string, actor domain.Actor, note string) (*TransitionResult, error)
	ResolveMaintenance(ctx context.Context, hotelID, roomID string, actor domain.Actor, needsCleaning bool, note string) (*TransitionResult, error)
	MarkOutOfOrder(ctx context.Context, hotelID, roomID string, actor domain.Actor, note string) (*TransitionResult, error)
	ReturnToService(ctx context.Context, hotelID, roomID string, actor domain.Actor, note string) (*TransitionResult, error)
}

type service struct {
	repo       Repository
	tx         db.TxManager
	dispatcher notify.Dispatcher
	logger     *logrus.Logger
	now        func() time.Time
}

// NewService creates a new room service.
func NewService(repo Repository, tx db.TxManager, dispatcher notify.Dispatcher, logger *logrus.Logger) Service {
	return &service{
		repo:       repo,
		tx:         tx,
		dispatcher: dispatcher,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) GetByID(ctx context.Context, hotelID, id string) (*domain.Room, error) {
	return s.repo.GetByID(ctx, hotelID, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*domain.Room, int, error) {
	if filter.HotelID == "" {
		return nil, 0, domain.ErrValidation.WithMessage("hotel id is required")
	}
	return s.repo.List(ctx, filter)
}

func (s *service) History(ctx context.Context, hotelID, roomID string, filter EventFilter) ([]*domain.RoomStatusEvent, int, error) {
	// Verify the room belongs to the hotel
	if _, err := s.repo.GetByID(ctx, hotelID, roomID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListEvents(ctx, hotelID, roomID, filter)
}

func (s *service) Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	var result *TransitionResult
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.Apply(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(result.Event)
	return result, nil
}

func (s *service) Apply(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	if req.HotelID == "" || req.RoomID == "" || req.Actor.ID == "" {
		return nil, domain.ErrValidation.WithMessage("hotel, room and actor are required")
	}
	if req.Actor.HotelID != "" && req.Actor.HotelID != req.HotelID {
		return nil, domain.ErrHotelMismatch
	}
	if req.Source == "" {
		req.Source = domain.SourceStaffAction
	}
	req.Note = strings.TrimSpace(req.Note)

	r, err := s.repo.LockByID(ctx, req.HotelID, req.RoomID)
	if err != nil {
		return nil, err
	}

	if err := ValidateTransition(r.TurnoverStatus, req.To, req.Source, req.Note, req.BookingID); err != nil {
		return nil, err
	}

	from := r.TurnoverStatus
	now := s.now()
	applyTransition(r, req.To, req.Actor.ID, now)

	if err := s.repo.UpdateStatus(ctx, r); err != nil {
		return nil, err
	}

	statusEvent := &domain.RoomStatusEvent{
		HotelID:    r.HotelID,
		RoomID:     r.ID,
		FromStatus: from,
		ToStatus:   r.TurnoverStatus,
		ActorID:    req.Actor.ID,
		Source:     req.Source,
		Note:       req.Note,
		BookingID:  req.BookingID,
		CreatedAt:  now,
	}
	if err := s.repo.InsertEvent(ctx, statusEvent); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"hotel_id": r.HotelID,
		"room_id":  r.ID,
		"from":     from,
		"to":       r.TurnoverStatus,
		"source":   req.Source,
		"actor_id": req.Actor.ID,
	}).Info("room status changed")

	return &TransitionResult{
		Room:        r,
		StatusEvent: statusEvent,
		Event:       domain.NewEvent(EventStatusChanged, r.HotelID, domain.EntityRoom, r.ID, string(from), string(r.TurnoverStatus), req.Actor.ID, now),
	}, nil
}

func (s *service) staff(ctx context.Context, hotelID, roomID string, actor domain.Actor, to domain.RoomStatus, note string) (*TransitionResult, error) {
	return s.Transition(ctx, TransitionRequest{
		HotelID: hotelID,
		RoomID:  roomID,
		To:      to,
		Actor:   actor,
		Source:  domain.SourceStaffAction,
		Note:    note,
	})
}

func (s *service) StartCleaning(ctx context.Context, hotelID, roomID string, actor domain.Actor) (*TransitionResult, error) {
	return s.staff(ctx, hotelID, roomID, actor, domain.RoomCleaningInProgress, "")
}

func (s *service) MarkCleaned(ctx context.Context, hotelID, roomID string, actor domain.Actor) (*TransitionResult, error) {
	return s.staff(ctx, hotelID, roomID, actor, domain.RoomCleanedUninspected, "")
}

// Inspect releases a cleaned room for sale, or sends it back to the dirty
// queue when the inspection fails.
func (s *service) Inspect(ctx context.Context, hotelID, roomID string, actor domain.Actor, passed bool, note string) (*TransitionResult, error) {
	if passed {
		return s.staff(ctx, hotelID, roomID, actor, domain.RoomReadyForGuest, note)
	}
	return s.staff(ctx, hotelID, roomID, actor, domain.RoomCheckoutDirty, note)
}

func (s *service) ReportMaintenance(ctx context.Context, hotelID, roomID string, actor domain.Actor, note string) (*TransitionResult, error) {
	return s.staff(ctx, hotelID, roomID, actor, domain.RoomMaintenanceRequired, note)
}

func (s *service) ResolveMaintenance(ctx context.Context, hotelID, roomID string, actor domain.Actor, needsCleaning bool, note string) (*TransitionResult, error) {
	if needsCleaning {
		return s.staff(ctx, hotelID, roomID, actor, domain.RoomCheckoutDirty, note)
	}
	return s.staff(ctx, hotelID, roomID, actor, domain.RoomCleanedUninspected, note)
}

func (s *service) MarkOutOfOrder(ctx context.Context, hotelID, roomID string, actor domain.Actor, note string) (*TransitionResult, error) {
	return s.staff(ctx, hotelID, roomID, actor, domain.RoomOutOfOrder, note)
}

// ReturnToService puts an out-of-order room back at the start of the turnover workflow.
func (s *service) ReturnToService(ctx context.Context, hotelID, roomID string, actor domain.Actor, note string) (*TransitionResult, error) {
	return s.staff(ctx, hotelID, roomID, actor, domain.RoomCheckoutDirty, note)
}
