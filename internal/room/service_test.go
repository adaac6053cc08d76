package room_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/hotel"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/room"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/roomtype"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/testutil"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/testutil/memstore"
)

type fixture struct {
	store   *memstore.Store
	events  *testutil.Recorder
	service room.Service
	hotelID string
	roomID  string
	staff   domain.Actor
	manager domain.Actor
}

func setup(t *testing.T, status domain.RoomStatus) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := memstore.New()
	events := &testutil.Recorder{}

	h := store.AddHotel(hotel.Hotel{Name: "Harbor", IsActive: true})
	rt := store.AddRoomType(roomtype.RoomType{HotelID: h.ID, Name: "Double"})
	r := store.AddRoom(domain.Room{HotelID: h.ID, RoomTypeID: rt.ID, Number: "101", IsActive: true, TurnoverStatus: status})

	return &fixture{
		store:   store,
		events:  events,
		service: room.NewService(store.Rooms(), store, events, logger),
		hotelID: h.ID,
		roomID:  r.ID,
		staff:   domain.Actor{ID: "hk-1", HotelID: h.ID, Capabilities: []string{domain.CapRooms}},
		manager: domain.Actor{ID: "mgr-1", HotelID: h.ID, Capabilities: []string{domain.CapManager}},
	}
}

func TestTurnoverCycle(t *testing.T) {
	f := setup(t, domain.RoomReadyForGuest)
	ctx := context.Background()
	bookingID := "b-1"

	_, err := f.service.Transition(ctx, room.TransitionRequest{
		HotelID: f.hotelID, RoomID: f.roomID, To: domain.RoomOccupied,
		Actor: domain.SystemActor(f.hotelID, "check-in"), Source: domain.SourceAutomated, BookingID: &bookingID,
	})
	require.NoError(t, err)

	_, err = f.service.Transition(ctx, room.TransitionRequest{
		HotelID: f.hotelID, RoomID: f.roomID, To: domain.RoomCheckoutDirty,
		Actor: domain.SystemActor(f.hotelID, "check-out"), Source: domain.SourceAutomated, BookingID: &bookingID,
	})
	require.NoError(t, err)

	_, err = f.service.StartCleaning(ctx, f.hotelID, f.roomID, f.staff)
	require.NoError(t, err)
	_, err = f.service.MarkCleaned(ctx, f.hotelID, f.roomID, f.staff)
	require.NoError(t, err)

	// A failed inspection sends the room back to the dirty queue.
	res, err := f.service.Inspect(ctx, f.hotelID, f.roomID, f.staff, false, "hair in sink")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomCheckoutDirty, res.Room.TurnoverStatus)
	assert.False(t, res.Room.IsSellable())

	_, err = f.service.StartCleaning(ctx, f.hotelID, f.roomID, f.staff)
	require.NoError(t, err)
	_, err = f.service.MarkCleaned(ctx, f.hotelID, f.roomID, f.staff)
	require.NoError(t, err)
	res, err = f.service.Inspect(ctx, f.hotelID, f.roomID, f.staff, true, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomReadyForGuest, res.Room.TurnoverStatus)
	assert.True(t, res.Room.IsSellable())
	assert.NotNil(t, res.Room.LastInspectedAt)

	history := f.store.StatusEvents()
	require.Len(t, history, 8)
	assert.Equal(t, domain.RoomReadyForGuest, history[0].FromStatus)
	assert.Equal(t, domain.RoomOccupied, history[0].ToStatus)
	assert.Equal(t, &bookingID, history[0].BookingID)
	assert.Equal(t, "hair in sink", history[4].Note)
	assert.Equal(t, 8, f.events.Count(room.EventStatusChanged))
}

func TestRejectedTransitionLeavesNoTrace(t *testing.T) {
	f := setup(t, domain.RoomCheckoutDirty)

	_, err := f.service.Inspect(context.Background(), f.hotelID, f.roomID, f.staff, true, "")

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.RoomCheckoutDirty, f.store.Room(f.roomID).TurnoverStatus)
	assert.Empty(t, f.store.StatusEvents())
	assert.Empty(t, f.events.Names())
}

func TestManagerOverride(t *testing.T) {
	f := setup(t, domain.RoomCheckoutDirty)
	ctx := context.Background()

	_, err := f.service.Transition(ctx, room.TransitionRequest{
		HotelID: f.hotelID, RoomID: f.roomID, To: domain.RoomReadyForGuest,
		Actor: f.manager, Source: domain.SourceManagerOverride,
	})
	assert.ErrorIs(t, err, domain.ErrMissingOverrideJustification)

	res, err := f.service.Transition(ctx, room.TransitionRequest{
		HotelID: f.hotelID, RoomID: f.roomID, To: domain.RoomReadyForGuest,
		Actor: f.manager, Source: domain.SourceManagerOverride, Note: "walked through personally",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceManagerOverride, res.StatusEvent.Source)
	assert.Equal(t, "walked through personally", res.StatusEvent.Note)
}

func TestMaintenanceBlocksSale(t *testing.T) {
	f := setup(t, domain.RoomAvailable)
	ctx := context.Background()

	res, err := f.service.ReportMaintenance(ctx, f.hotelID, f.roomID, f.staff, "leaking tap")
	require.NoError(t, err)
	assert.True(t, res.Room.MaintenanceRequired)
	assert.False(t, res.Room.IsSellable())

	res, err = f.service.ResolveMaintenance(ctx, f.hotelID, f.roomID, f.staff, true, "fixed")
	require.NoError(t, err)
	assert.False(t, res.Room.MaintenanceRequired)
	assert.Equal(t, domain.RoomCheckoutDirty, res.Room.TurnoverStatus)
}

func TestOutOfOrderRoundTrip(t *testing.T) {
	f := setup(t, domain.RoomAvailable)
	ctx := context.Background()

	res, err := f.service.MarkOutOfOrder(ctx, f.hotelID, f.roomID, f.manager, "flooded")
	require.NoError(t, err)
	assert.True(t, res.Room.IsOutOfOrder)

	res, err = f.service.ReturnToService(ctx, f.hotelID, f.roomID, f.manager, "")
	require.NoError(t, err)
	assert.False(t, res.Room.IsOutOfOrder)
	assert.Equal(t, domain.RoomCheckoutDirty, res.Room.TurnoverStatus)
}

func TestTransitionHotelMismatch(t *testing.T) {
	f := setup(t, domain.RoomCheckoutDirty)
	outsider := domain.Actor{ID: "hk-9", HotelID: "other-hotel"}

	_, err := f.service.StartCleaning(context.Background(), f.hotelID, f.roomID, outsider)

	assert.ErrorIs(t, err, domain.ErrHotelMismatch)
}

func TestHistoryNewestFirst(t *testing.T) {
	f := setup(t, domain.RoomCheckoutDirty)
	ctx := context.Background()

	_, err := f.service.StartCleaning(ctx, f.hotelID, f.roomID, f.staff)
	require.NoError(t, err)
	_, err = f.service.MarkCleaned(ctx, f.hotelID, f.roomID, f.staff)
	require.NoError(t, err)

	events, total, err := f.service.History(ctx, f.hotelID, f.roomID, room.EventFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, domain.RoomCleanedUninspected, events[0].ToStatus)

	_, _, err = f.service.History(ctx, "other-hotel", f.roomID, room.EventFilter{})
	assert.ErrorIs(t, err, room.ErrNotFound)
}
