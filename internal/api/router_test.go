package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/api"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/assignment"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/auth"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/availability"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/hotel-inventory-backend/internal/booking/http"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/cancellation"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/hotel"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/payment"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/response"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/ratelimit"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/room"
	roomHttp "github.com/nekogravitycat/hotel-inventory-backend/internal/room/http"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/roomtype"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/testutil"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/testutil/memstore"
)

const webhookToken = "hook-secret"

type stubGateway struct {
	mock.Mock
}

func (g *stubGateway) Authorize(ctx context.Context, key string, amount int64, currency string) (string, error) {
	args := g.Called(ctx, key, amount, currency)
	return args.String(0), args.Error(1)
}

func (g *stubGateway) Capture(ctx context.Context, key, authRef string) (string, error) {
	args := g.Called(ctx, key, authRef)
	return args.String(0), args.Error(1)
}

func (g *stubGateway) Void(ctx context.Context, key, authRef string) error {
	return g.Called(ctx, key, authRef).Error(0)
}

func (g *stubGateway) Refund(ctx context.Context, key, captureRef string, amount int64) (payment.RefundResult, error) {
	args := g.Called(ctx, key, captureRef, amount)
	return args.Get(0).(payment.RefundResult), args.Error(1)
}

type testApp struct {
	router     *gin.Engine
	store      *memstore.Store
	gateway    *stubGateway
	hotelID    string
	roomTypeID string
	roomID     string

	deskToken    string
	staffToken   string
	managerToken string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	store := memstore.New()
	events := &testutil.Recorder{}
	gw := new(stubGateway)

	h := store.AddHotel(hotel.Hotel{Name: "Harbor", IsActive: true})
	rt := store.AddRoomType(roomtype.RoomType{HotelID: h.ID, Name: "Double"})
	r := store.AddRoom(domain.Room{HotelID: h.ID, RoomTypeID: rt.ID, Number: "101", IsActive: true, TurnoverStatus: domain.RoomReadyForGuest})

	hotelService := hotel.NewService(store.Hotels())
	roomService := room.NewService(store.Rooms(), store, events, logger)
	availabilityService := availability.NewService(store.Availability(), logger)
	policyService := cancellation.NewService(store.Policies())
	assignmentService := assignment.NewService(store.Rooms(), store.Bookings(), store, events, logger)
	bookingService := booking.NewService(booking.Deps{
		Repo:         store.Bookings(),
		Tx:           store,
		Hotels:       hotelService,
		RoomTypes:    store.RoomTypes(),
		Availability: availabilityService,
		Policies:     policyService,
		Rooms:        roomService,
		Assignments:  assignmentService,
		Gateway:      payment.NewIdempotentGateway(gw, payment.NewMemoryStore(), time.Hour, logger),
		Dispatcher:   events,
		Logger:       logger,
		BulkMaxItems: 2,
	})

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	router := api.NewRouter(api.Config{
		Logger:              logger,
		HotelService:        hotelService,
		RoomTypeService:     roomtype.NewService(store.RoomTypes()),
		RoomService:         roomService,
		AvailabilityService: availabilityService,
		PolicyService:       policyService,
		AssignmentService:   assignmentService,
		BookingService:      bookingService,
		JWTManager:          jwtManager,
		WebhookToken:        webhookToken,
		RateLimit:           ratelimit.Config{Enabled: false},
	})

	token := func(user string, caps ...string) string {
		tok, err := jwtManager.GenerateAccessToken(user, h.ID, caps)
		require.NoError(t, err)
		return tok
	}

	return &testApp{
		router:       router,
		store:        store,
		gateway:      gw,
		hotelID:      h.ID,
		roomTypeID:   rt.ID,
		roomID:       r.ID,
		deskToken:    token("desk-1", domain.CapFrontDesk),
		staffToken:   token("hk-1", domain.CapRooms),
		managerToken: token("mgr-1", domain.CapManager),
	}
}

func (a *testApp) do(method, path string, body any, token string, headers ...string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) path(format string, args ...any) string {
	return fmt.Sprintf("/v1/hotels/%s", a.hotelID) + fmt.Sprintf(format, args...)
}

func (a *testApp) createBooking(t *testing.T) string {
	t.Helper()
	today := time.Now().UTC()
	w := a.do(http.MethodPost, a.path("/bookings"), bookingHttp.CreateBookingRequest{
		RoomTypeID:  a.roomTypeID,
		GuestID:     "guest-1",
		CheckIn:     today.Format("2006-01-02"),
		CheckOut:    today.AddDate(0, 0, 2).Format("2006-01-02"),
		Adults:      2,
		TotalAmount: 20000,
		Currency:    "EUR",
	}, a.deskToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res bookingHttp.LifecycleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res.Booking.ID
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	w := a.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStayAndTurnover(t *testing.T) {
	a := newTestApp(t)
	var bookingID string

	t.Run("Create Booking", func(t *testing.T) {
		w := a.do(http.MethodPost, a.path("/bookings"), bookingHttp.CreateBookingRequest{}, a.staffToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		bookingID = a.createBooking(t)
	})

	t.Run("Authorization Webhook", func(t *testing.T) {
		payload := bookingHttp.AuthorizationWebhook{HotelID: a.hotelID, BookingID: bookingID, AuthorizationRef: "auth-1"}

		w := a.do(http.MethodPost, "/v1/webhooks/payments/authorized", payload, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = a.do(http.MethodPost, "/v1/webhooks/payments/authorized", payload, "", "X-Webhook-Token", webhookToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		res := decode[bookingHttp.LifecycleResponse](t, w)
		assert.Equal(t, string(domain.BookingPendingApproval), res.Booking.Status)
		assert.True(t, res.Booking.Authorized)
	})

	t.Run("Accept", func(t *testing.T) {
		a.gateway.On("Capture", mock.Anything, payment.Key(bookingID, payment.OpCapture), "auth-1").Return("cap-1", nil).Once()

		w := a.do(http.MethodPost, a.path("/bookings/%s/accept", bookingID), nil, a.deskToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		res := decode[bookingHttp.LifecycleResponse](t, w)
		assert.Equal(t, string(domain.BookingConfirmed), res.Booking.Status)
		assert.True(t, res.Booking.Captured)
		require.NotNil(t, res.Booking.AssignedRoomID)
		assert.Equal(t, a.roomID, *res.Booking.AssignedRoomID)

		// Repeating the call changes nothing.
		w = a.do(http.MethodPost, a.path("/bookings/%s/accept", bookingID), nil, a.deskToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[bookingHttp.LifecycleResponse](t, w).Events)
		a.gateway.AssertExpectations(t)
	})

	t.Run("Check In", func(t *testing.T) {
		w := a.do(http.MethodPost, a.path("/bookings/%s/check-in", bookingID), nil, a.deskToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = a.do(http.MethodGet, a.path("/rooms/%s", a.roomID), nil, a.staffToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, string(domain.RoomOccupied), decode[roomHttp.RoomResponse](t, w).TurnoverStatus)
	})

	t.Run("Housekeeping Cannot Touch Occupied Room", func(t *testing.T) {
		w := a.do(http.MethodPost, a.path("/rooms/%s/start-cleaning", a.roomID), nil, a.staffToken)
		assert.Equal(t, http.StatusConflict, w.Code)

		body := decode[response.ErrorResponse](t, w)
		assert.Equal(t, "InvalidTransition", body.Invariant)
		assert.Equal(t, string(domain.RoomOccupied), body.Current)
		assert.Equal(t, string(domain.RoomCleaningInProgress), body.Attempted)

		// Cancelling during the stay is rejected too.
		w = a.do(http.MethodPost, a.path("/bookings/%s/cancel", bookingID), nil, a.deskToken)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Check Out", func(t *testing.T) {
		w := a.do(http.MethodPost, a.path("/bookings/%s/check-out", bookingID), nil, a.deskToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		res := decode[bookingHttp.LifecycleResponse](t, w)
		assert.Equal(t, string(domain.BookingCompleted), res.Booking.Status)
		assert.Len(t, res.Events, 2)
	})

	t.Run("Turnover", func(t *testing.T) {
		w := a.do(http.MethodPost, a.path("/rooms/%s/start-cleaning", a.roomID), nil, a.staffToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = a.do(http.MethodPost, a.path("/rooms/%s/mark-cleaned", a.roomID), nil, a.staffToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = a.do(http.MethodPost, a.path("/rooms/%s/inspect", a.roomID), map[string]any{"passed": true}, a.staffToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		res := decode[roomHttp.TransitionResponse](t, w)
		assert.Equal(t, string(domain.RoomReadyForGuest), res.Room.TurnoverStatus)
		assert.True(t, res.Room.Sellable)
	})

	t.Run("History", func(t *testing.T) {
		w := a.do(http.MethodGet, a.path("/rooms/%s/history", a.roomID), nil, a.staffToken)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[response.PageResponse[roomHttp.StatusEventResponse]](t, w)
		assert.Equal(t, 5, page.Total)
	})
}

func TestManagerOverrideRequiresCapability(t *testing.T) {
	a := newTestApp(t)
	target := a.path("/rooms/%s/transitions", a.roomID)
	body := roomHttp.TransitionRequest{To: string(domain.RoomCheckoutDirty), Override: true, Note: "deep clean"}

	w := a.do(http.MethodPost, target, body, a.staffToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodPost, target, roomHttp.TransitionRequest{To: string(domain.RoomCheckoutDirty), Override: true}, a.managerToken)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.do(http.MethodPost, target, body, a.managerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.RoomCheckoutDirty, a.store.Room(a.roomID).TurnoverStatus)
}

func TestInactiveHotelIsReadOnly(t *testing.T) {
	a := newTestApp(t)
	h, err := a.store.Hotels().GetByID(context.Background(), a.hotelID)
	require.NoError(t, err)
	h.IsActive = false
	require.NoError(t, a.store.Hotels().Update(context.Background(), h))

	w := a.do(http.MethodGet, a.path("/rooms"), nil, a.deskToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodPost, a.path("/rooms/%s/maintenance", a.roomID), nil, a.staffToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTokenScopedToHotel(t *testing.T) {
	a := newTestApp(t)
	w := a.do(http.MethodGet, "/v1/hotels/22222222-2222-2222-2222-222222222222/rooms", nil, a.deskToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodGet, a.path("/rooms"), nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBulkCheckOutCeiling(t *testing.T) {
	a := newTestApp(t)
	ids := []string{
		"11111111-1111-1111-1111-111111111111",
		"22222222-2222-2222-2222-222222222222",
		"33333333-3333-3333-3333-333333333333",
	}

	w := a.do(http.MethodPost, a.path("/bookings/bulk-checkout"), bookingHttp.BulkCheckOutRequest{BookingIDs: ids}, a.deskToken)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = a.do(http.MethodPost, a.path("/bookings/bulk-checkout"), bookingHttp.BulkCheckOutRequest{BookingIDs: ids[:1]}, a.deskToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[bookingHttp.BulkResponse](t, w)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, "BookingNotFound", res.Items[0].Error.Invariant)
}

func TestCancellationQuote(t *testing.T) {
	a := newTestApp(t)
	bookingID := a.createBooking(t)

	w := a.do(http.MethodGet, a.path("/bookings/%s/cancellation-quote", bookingID), nil, a.deskToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	quote := decode[cancellation.Breakdown](t, w)
	assert.Zero(t, quote.Fee)
	assert.Equal(t, "EUR", quote.Currency)

	w = a.do(http.MethodPost, a.path("/bookings/%s/cancel", bookingID), bookingHttp.CancelRequest{Reason: "changed plans"}, a.deskToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[bookingHttp.LifecycleResponse](t, w)
	assert.Equal(t, string(domain.BookingCancelled), res.Booking.Status)
}
