package assignment_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/assignment"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/hotel"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/roomtype"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/testutil"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/testutil/memstore"
)

type fixture struct {
	store      *memstore.Store
	events     *testutil.Recorder
	service    assignment.Service
	hotelID    string
	roomTypeID string
	clerk      domain.Actor
}

func setup(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := memstore.New()
	events := &testutil.Recorder{}

	h := store.AddHotel(hotel.Hotel{Name: "Harbor", IsActive: true})
	rt := store.AddRoomType(roomtype.RoomType{HotelID: h.ID, Name: "Double"})

	return &fixture{
		store:      store,
		events:     events,
		service:    assignment.NewService(store.Rooms(), store.Bookings(), store, events, logger),
		hotelID:    h.ID,
		roomTypeID: rt.ID,
		clerk:      domain.Actor{ID: "desk-1", HotelID: h.ID, Capabilities: []string{domain.CapFrontDesk}},
	}
}

func (f *fixture) room(number string, status domain.RoomStatus) *domain.Room {
	return f.store.AddRoom(domain.Room{
		HotelID:        f.hotelID,
		RoomTypeID:     f.roomTypeID,
		Number:         number,
		IsActive:       true,
		TurnoverStatus: status,
	})
}

func (f *fixture) booking(checkIn string, nights int, status domain.BookingStatus) *domain.Booking {
	in, _ := time.Parse("2006-01-02", checkIn)
	return f.store.PutBooking(domain.Booking{
		HotelID:    f.hotelID,
		RoomTypeID: f.roomTypeID,
		GuestID:    "guest",
		CheckIn:    in,
		CheckOut:   in.AddDate(0, 0, nights),
		Adults:     1,
		Status:     status,
		Currency:   "EUR",
	})
}

func TestAssign(t *testing.T) {
	f := setup(t)
	r := f.room("101", domain.RoomReadyForGuest)
	b := f.booking("2026-05-01", 2, domain.BookingConfirmed)

	res, err := f.service.Assign(context.Background(), assignment.AssignRequest{
		HotelID: f.hotelID, RoomID: r.ID, BookingID: b.ID, Actor: f.clerk, Notes: "sea view",
	})
	require.NoError(t, err)

	require.NotNil(t, res.Event)
	assert.Equal(t, assignment.EventRoomAssigned, res.Event.Name)
	assert.Equal(t, "101", res.Event.ToState)
	assert.Equal(t, int64(1), res.Room.AssignmentVersion)

	stored := f.store.Booking(b.ID)
	require.NotNil(t, stored.AssignedRoomID)
	assert.Equal(t, r.ID, *stored.AssignedRoomID)
	assert.Equal(t, "assigned room 101: sea view", stored.Notes[len(stored.Notes)-1].Text)
	assert.Equal(t, b.ID, *f.store.Room(r.ID).AssignedBookingID)
	assert.Equal(t, []string{assignment.EventRoomAssigned}, f.events.Names())
}

func TestAssignIsIdempotent(t *testing.T) {
	f := setup(t)
	r := f.room("101", domain.RoomReadyForGuest)
	b := f.booking("2026-05-01", 2, domain.BookingConfirmed)
	req := assignment.AssignRequest{HotelID: f.hotelID, RoomID: r.ID, BookingID: b.ID, Actor: f.clerk}

	_, err := f.service.Assign(context.Background(), req)
	require.NoError(t, err)
	res, err := f.service.Assign(context.Background(), req)
	require.NoError(t, err)

	assert.Nil(t, res.Event)
	assert.Equal(t, int64(1), f.store.Room(r.ID).AssignmentVersion)
	assert.Equal(t, 1, f.events.Count(assignment.EventRoomAssigned))
}

func TestAssignRejections(t *testing.T) {
	f := setup(t)
	dirty := f.room("102", domain.RoomCheckoutDirty)
	ready := f.room("103", domain.RoomReadyForGuest)
	pending := f.booking("2026-05-01", 2, domain.BookingPendingApproval)
	confirmed := f.booking("2026-05-01", 2, domain.BookingConfirmed)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, assignment.AssignRequest{HotelID: f.hotelID, RoomID: ready.ID, BookingID: pending.ID, Actor: f.clerk})
	assert.ErrorIs(t, err, domain.ErrBookingNotConfirmed)

	_, err = f.service.Assign(ctx, assignment.AssignRequest{HotelID: f.hotelID, RoomID: dirty.ID, BookingID: confirmed.ID, Actor: f.clerk})
	assert.ErrorIs(t, err, domain.ErrRoomNotSellable)

	outsider := domain.Actor{ID: "desk-9", HotelID: "other"}
	_, err = f.service.Assign(ctx, assignment.AssignRequest{HotelID: f.hotelID, RoomID: ready.ID, BookingID: confirmed.ID, Actor: outsider})
	assert.ErrorIs(t, err, domain.ErrHotelMismatch)

	assert.Empty(t, f.events.Names())
	assert.Nil(t, f.store.Booking(confirmed.ID).AssignedRoomID)
}

func TestConcurrentAssignOneWinner(t *testing.T) {
	f := setup(t)
	r := f.room("101", domain.RoomReadyForGuest)

	// Staggered stays that all share the night of May 3rd.
	arrivals := []string{"2026-05-01", "2026-05-02", "2026-05-03"}
	const n = 8
	bookings := make([]*domain.Booking, n)
	for i := range bookings {
		bookings[i] = f.booking(arrivals[i%len(arrivals)], 3, domain.BookingConfirmed)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for _, b := range bookings {
		wg.Add(1)
		go func(b *domain.Booking) {
			defer wg.Done()
			_, err := f.service.Assign(context.Background(), assignment.AssignRequest{
				HotelID: f.hotelID, RoomID: r.ID, BookingID: b.ID, Actor: f.clerk,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if assert.ErrorIs(t, err, domain.ErrOverlapConflict) {
				conflicts++
			}
		}(b)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, conflicts)
	assert.Equal(t, 1, f.events.Count(assignment.EventRoomAssigned))

	assigned := 0
	for _, b := range bookings {
		if f.store.Booking(b.ID).AssignedRoomID != nil {
			assigned++
		}
	}
	assert.Equal(t, 1, assigned)
}

func TestAssignAdjacentStays(t *testing.T) {
	f := setup(t)
	r := f.room("101", domain.RoomReadyForGuest)
	first := f.booking("2026-05-01", 2, domain.BookingConfirmed)
	second := f.booking("2026-05-03", 2, domain.BookingConfirmed)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, assignment.AssignRequest{HotelID: f.hotelID, RoomID: r.ID, BookingID: first.ID, Actor: f.clerk})
	require.NoError(t, err)
	_, err = f.service.Assign(ctx, assignment.AssignRequest{HotelID: f.hotelID, RoomID: r.ID, BookingID: second.ID, Actor: f.clerk})
	require.NoError(t, err)

	// The room points at the latest assignment; both bookings keep theirs.
	assert.Equal(t, second.ID, *f.store.Room(r.ID).AssignedBookingID)
	assert.Equal(t, r.ID, *f.store.Booking(first.ID).AssignedRoomID)
}

func TestAssignSameRoomRepointsRoom(t *testing.T) {
	f := setup(t)
	r := f.room("101", domain.RoomReadyForGuest)
	first := f.booking("2026-05-01", 2, domain.BookingConfirmed)
	second := f.booking("2026-05-05", 2, domain.BookingConfirmed)
	ctx := context.Background()

	for _, b := range []*domain.Booking{first, second} {
		_, err := f.service.Assign(ctx, assignment.AssignRequest{HotelID: f.hotelID, RoomID: r.ID, BookingID: b.ID, Actor: f.clerk})
		require.NoError(t, err)
	}
	f.events.Reset()

	res, err := f.service.Assign(ctx, assignment.AssignRequest{HotelID: f.hotelID, RoomID: r.ID, BookingID: first.ID, Actor: f.clerk})
	require.NoError(t, err)
	assert.Nil(t, res.Event)
	assert.Equal(t, first.ID, *f.store.Room(r.ID).AssignedBookingID)
	assert.Equal(t, int64(3), f.store.Room(r.ID).AssignmentVersion)

	// The earlier stay can now be unassigned; the later one keeps the room.
	_, err = f.service.Unassign(ctx, assignment.UnassignRequest{HotelID: f.hotelID, RoomID: r.ID, Actor: f.clerk})
	require.NoError(t, err)
	assert.Nil(t, f.store.Booking(first.ID).AssignedRoomID)
	assert.Equal(t, r.ID, *f.store.Booking(second.ID).AssignedRoomID)
	assert.Equal(t, []string{assignment.EventRoomUnassigned}, f.events.Names())
}

func TestClaim(t *testing.T) {
	f := setup(t)
	r := f.room("101", domain.RoomReadyForGuest)
	first := f.booking("2026-05-01", 2, domain.BookingConfirmed)
	second := f.booking("2026-05-05", 2, domain.BookingConfirmed)
	ctx := context.Background()

	for _, b := range []*domain.Booking{first, second} {
		_, err := f.service.Assign(ctx, assignment.AssignRequest{HotelID: f.hotelID, RoomID: r.ID, BookingID: b.ID, Actor: f.clerk})
		require.NoError(t, err)
	}

	err := f.store.WithTx(ctx, func(ctx context.Context) error {
		claimed, err := f.service.Claim(ctx, f.store.Booking(first.ID), f.clerk)
		require.NoError(t, err)
		assert.Equal(t, first.ID, *claimed.AssignedBookingID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, *f.store.Room(r.ID).AssignedBookingID)
	assert.Equal(t, int64(3), f.store.Room(r.ID).AssignmentVersion)

	// Claiming twice changes nothing.
	err = f.store.WithTx(ctx, func(ctx context.Context) error {
		_, err := f.service.Claim(ctx, f.store.Booking(first.ID), f.clerk)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.store.Room(r.ID).AssignmentVersion)
}

func TestClaimRejectsOverlap(t *testing.T) {
	f := setup(t)
	r := f.room("101", domain.RoomReadyForGuest)
	holder := f.booking("2026-05-01", 3, domain.BookingConfirmed)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, assignment.AssignRequest{HotelID: f.hotelID, RoomID: r.ID, BookingID: holder.ID, Actor: f.clerk})
	require.NoError(t, err)

	// A row written around the assignment service that double-books the room.
	stray := f.booking("2026-05-02", 1, domain.BookingConfirmed)
	stray.AssignedRoomID = &r.ID
	f.store.PutBooking(*stray)

	err = f.store.WithTx(ctx, func(ctx context.Context) error {
		_, err := f.service.Claim(ctx, f.store.Booking(stray.ID), f.clerk)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrOverlapConflict)
	assert.Equal(t, holder.ID, *f.store.Room(r.ID).AssignedBookingID)
}

func TestReassignMovesBooking(t *testing.T) {
	f := setup(t)
	a := f.room("101", domain.RoomReadyForGuest)
	c := f.room("102", domain.RoomAvailable)
	b := f.booking("2026-05-01", 2, domain.BookingConfirmed)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, assignment.AssignRequest{HotelID: f.hotelID, RoomID: a.ID, BookingID: b.ID, Actor: f.clerk})
	require.NoError(t, err)
	res, err := f.service.Assign(ctx, assignment.AssignRequest{HotelID: f.hotelID, RoomID: c.ID, BookingID: b.ID, Actor: f.clerk})
	require.NoError(t, err)

	assert.Equal(t, "101", res.Event.FromState)
	assert.Equal(t, "102", res.Event.ToState)
	assert.Nil(t, f.store.Room(a.ID).AssignedBookingID)
	assert.Equal(t, c.ID, *f.store.Booking(b.ID).AssignedRoomID)
}

func TestAssignRejectsGuestInStay(t *testing.T) {
	f := setup(t)
	a := f.room("101", domain.RoomReadyForGuest)
	c := f.room("102", domain.RoomReadyForGuest)
	b := f.booking("2026-05-01", 2, domain.BookingConfirmed)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, assignment.AssignRequest{HotelID: f.hotelID, RoomID: a.ID, BookingID: b.ID, Actor: f.clerk})
	require.NoError(t, err)

	stored := f.store.Booking(b.ID)
	now := time.Now().UTC()
	stored.CheckedInAt = &now
	f.store.PutBooking(*stored)

	_, err = f.service.Assign(ctx, assignment.AssignRequest{HotelID: f.hotelID, RoomID: c.ID, BookingID: b.ID, Actor: f.clerk})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.service.Unassign(ctx, assignment.UnassignRequest{HotelID: f.hotelID, RoomID: a.ID, Actor: f.clerk})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, a.ID, *f.store.Booking(b.ID).AssignedRoomID)
}

func TestUnassign(t *testing.T) {
	f := setup(t)
	r := f.room("101", domain.RoomReadyForGuest)
	b := f.booking("2026-05-01", 2, domain.BookingConfirmed)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, assignment.AssignRequest{HotelID: f.hotelID, RoomID: r.ID, BookingID: b.ID, Actor: f.clerk})
	require.NoError(t, err)

	res, err := f.service.Unassign(ctx, assignment.UnassignRequest{HotelID: f.hotelID, RoomID: r.ID, Actor: f.clerk, Notes: "guest asked"})
	require.NoError(t, err)
	require.NotNil(t, res.Event)
	assert.Equal(t, assignment.EventRoomUnassigned, res.Event.Name)
	assert.Nil(t, f.store.Booking(b.ID).AssignedRoomID)
	assert.Nil(t, f.store.Room(r.ID).AssignedBookingID)

	// Unassigning an empty room is a no-op.
	res, err = f.service.Unassign(ctx, assignment.UnassignRequest{HotelID: f.hotelID, RoomID: r.ID, Actor: f.clerk})
	require.NoError(t, err)
	assert.Nil(t, res.Event)
	assert.Equal(t, []string{assignment.EventRoomAssigned, assignment.EventRoomUnassigned}, f.events.Names())
}

func TestAutoAssignSkipsTakenRooms(t *testing.T) {
	f := setup(t)
	first := f.room("101", domain.RoomReadyForGuest)
	f.room("102", domain.RoomCheckoutDirty)
	third := f.room("103", domain.RoomAvailable)
	holder := f.booking("2026-05-01", 3, domain.BookingConfirmed)
	b := f.booking("2026-05-02", 1, domain.BookingConfirmed)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, assignment.AssignRequest{HotelID: f.hotelID, RoomID: first.ID, BookingID: holder.ID, Actor: f.clerk})
	require.NoError(t, err)

	candidates, err := f.service.FindCandidates(ctx, f.hotelID, b.ID)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, third.ID, candidates[0].ID)

	res, err := f.service.AutoAssign(ctx, f.hotelID, b.ID, f.clerk)
	require.NoError(t, err)
	assert.Equal(t, third.ID, res.Room.ID)
	assert.Contains(t, res.Booking.Notes[len(res.Booking.Notes)-1].Text, "auto-assigned")
}

func TestAutoAssignNoRoom(t *testing.T) {
	f := setup(t)
	f.room("101", domain.RoomOutOfOrder)
	b := f.booking("2026-05-01", 1, domain.BookingConfirmed)

	_, err := f.service.AutoAssign(context.Background(), f.hotelID, b.ID, f.clerk)

	assert.ErrorIs(t, err, domain.ErrNoAvailability)
	assert.Empty(t, f.events.Names())
}

func TestFindCandidatesSkipsOutOfOrderFlag(t *testing.T) {
	f := setup(t)
	flagged := f.store.AddRoom(domain.Room{
		HotelID:        f.hotelID,
		RoomTypeID:     f.roomTypeID,
		Number:         "101",
		IsActive:       true,
		IsOutOfOrder:   true,
		TurnoverStatus: domain.RoomReadyForGuest,
	})
	ready := f.room("102", domain.RoomReadyForGuest)
	b := f.booking("2026-05-01", 1, domain.BookingConfirmed)

	candidates, err := f.service.FindCandidates(context.Background(), f.hotelID, b.ID)
	require.NoError(t, err)

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	assert.NotContains(t, ids, flagged.ID)
	assert.Equal(t, []string{ready.ID}, ids)
}

func TestReleaseInsideTransaction(t *testing.T) {
	f := setup(t)
	r := f.room("101", domain.RoomReadyForGuest)
	b := f.booking("2026-05-01", 2, domain.BookingConfirmed)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, assignment.AssignRequest{HotelID: f.hotelID, RoomID: r.ID, BookingID: b.ID, Actor: f.clerk})
	require.NoError(t, err)

	err = f.store.WithTx(ctx, func(ctx context.Context) error {
		released, err := f.service.Release(ctx, f.store.Booking(b.ID))
		require.NoError(t, err)
		assert.Equal(t, r.ID, released.ID)
		return nil
	})
	require.NoError(t, err)

	assert.Nil(t, f.store.Room(r.ID).AssignedBookingID)
	assert.Equal(t, int64(2), f.store.Room(r.ID).AssignmentVersion)
	// Release leaves the booking row to the caller.
	assert.NotNil(t, f.store.Booking(b.ID).AssignedRoomID)
}
