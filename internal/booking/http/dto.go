package http

import (
	"strings"
	"time"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/booking"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/response"
)

const dateLayout = "2006-01-02"

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	RoomTypeID string     `form:"room_type_id" binding:"omitempty,uuid"`
	GuestID    string     `form:"guest_id"`
	Status     string     `form:"status"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	SortBy     string     `form:"sort_by" binding:"omitempty,oneof=check_in check_out created_at status"`
}

// Validate performs custom validation for ListBookingsRequest.
func (r *ListBookingsRequest) Validate() error {
	if r.Status != "" && !domain.BookingStatus(strings.ToUpper(r.Status)).Valid() {
		return domain.ErrValidation.WithMessage("unknown booking status")
	}
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return domain.ErrValidation.WithMessage("from must not be after to")
	}
	return nil
}

type CreateBookingRequest struct {
	RoomTypeID  string `json:"room_type_id" binding:"required,uuid"`
	GuestID     string `json:"guest_id" binding:"required"`
	CheckIn     string `json:"check_in" binding:"required"`
	CheckOut    string `json:"check_out" binding:"required"`
	Adults      int    `json:"adults" binding:"required,min=1"`
	Children    int    `json:"children" binding:"min=0"`
	TotalAmount int64  `json:"total_amount" binding:"min=0"`
	Currency    string `json:"currency" binding:"required,len=3"`
}

// Dates parses the stay dates as calendar days.
func (r *CreateBookingRequest) Dates() (time.Time, time.Time, error) {
	in, err := time.Parse(dateLayout, r.CheckIn)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrValidation.WithMessage("check_in must be YYYY-MM-DD")
	}
	out, err := time.Parse(dateLayout, r.CheckOut)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrValidation.WithMessage("check_out must be YYYY-MM-DD")
	}
	return in, out, nil
}

type DeclineRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type BulkCheckOutRequest struct {
	BookingIDs []string `json:"booking_ids" binding:"required,min=1,dive,uuid"`
}

type AuthorizationWebhook struct {
	HotelID          string `json:"hotel_id" binding:"required,uuid"`
	BookingID        string `json:"booking_id" binding:"required,uuid"`
	AuthorizationRef string `json:"authorization_ref" binding:"required"`
}

type NoteResponse struct {
	At      time.Time `json:"at"`
	ActorID string    `json:"actor_id"`
	Text    string    `json:"text"`
}

type BookingResponse struct {
	ID                 string         `json:"id"`
	HotelID            string         `json:"hotel_id"`
	RoomTypeID         string         `json:"room_type_id"`
	GuestID            string         `json:"guest_id"`
	CheckIn            string         `json:"check_in"`
	CheckOut           string         `json:"check_out"`
	Nights             int            `json:"nights"`
	ArrivalAt          time.Time      `json:"arrival_at"`
	Adults             int            `json:"adults"`
	Children           int            `json:"children"`
	Status             string         `json:"status"`
	TotalAmount        int64          `json:"total_amount"`
	Currency           string         `json:"currency"`
	Authorized         bool           `json:"authorized"`
	Captured           bool           `json:"captured"`
	AssignedRoomID     *string        `json:"assigned_room_id,omitempty"`
	CheckedInAt        *time.Time     `json:"checked_in_at,omitempty"`
	CheckedOutAt       *time.Time     `json:"checked_out_at,omitempty"`
	CancelledAt        *time.Time     `json:"cancelled_at,omitempty"`
	CancellationReason *string        `json:"cancellation_reason,omitempty"`
	CancellationFee    *int64         `json:"cancellation_fee,omitempty"`
	RefundAmount       *int64         `json:"refund_amount,omitempty"`
	DeclineReason      *string        `json:"decline_reason,omitempty"`
	PolicyName         string         `json:"policy_name"`
	Notes              []NoteResponse `json:"notes"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func NewBookingResponse(b *domain.Booking) BookingResponse {
	notes := make([]NoteResponse, len(b.Notes))
	for i, n := range b.Notes {
		notes[i] = NoteResponse{At: n.At, ActorID: n.ActorID, Text: n.Text}
	}
	return BookingResponse{
		ID:                 b.ID,
		HotelID:            b.HotelID,
		RoomTypeID:         b.RoomTypeID,
		GuestID:            b.GuestID,
		CheckIn:            b.CheckIn.Format(dateLayout),
		CheckOut:           b.CheckOut.Format(dateLayout),
		Nights:             b.Nights(),
		ArrivalAt:          b.ArrivalAt,
		Adults:             b.Adults,
		Children:           b.Children,
		Status:             string(b.Status),
		TotalAmount:        b.TotalAmount,
		Currency:           b.Currency,
		Authorized:         b.AuthorizationRef != nil,
		Captured:           b.IsCaptured(),
		AssignedRoomID:     b.AssignedRoomID,
		CheckedInAt:        b.CheckedInAt,
		CheckedOutAt:       b.CheckedOutAt,
		CancelledAt:        b.CancelledAt,
		CancellationReason: b.CancellationReason,
		CancellationFee:    b.CancellationFee,
		RefundAmount:       b.RefundAmount,
		DeclineReason:      b.DeclineReason,
		PolicyName:         b.PolicySnapshot.Name,
		Notes:              notes,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// LifecycleResponse is returned by every state-changing booking endpoint.
// Events is empty when the call found the transition already applied.
type LifecycleResponse struct {
	Booking BookingResponse `json:"booking"`
	Events  []*domain.Event `json:"events"`
}

func NewLifecycleResponse(res *booking.Result) LifecycleResponse {
	events := make([]*domain.Event, 0, 1+len(res.Related))
	if res.Event != nil {
		events = append(events, res.Event)
	}
	events = append(events, res.Related...)
	return LifecycleResponse{
		Booking: NewBookingResponse(res.Booking),
		Events:  events,
	}
}

type BulkItemResponse struct {
	BookingID string                  `json:"booking_id"`
	OK        bool                    `json:"ok"`
	Booking   *BookingResponse        `json:"booking,omitempty"`
	Error     *response.ErrorResponse `json:"error,omitempty"`
}

type BulkResponse struct {
	Items     []BulkItemResponse `json:"items"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}

func NewBulkResponse(results []booking.BulkItemResult) BulkResponse {
	resp := BulkResponse{Items: make([]BulkItemResponse, len(results))}
	for i, r := range results {
		item := BulkItemResponse{BookingID: r.BookingID}
		if r.Err != nil {
			_, body := response.Describe(r.Err)
			item.Error = &body
			resp.Failed++
		} else {
			b := NewBookingResponse(r.Result.Booking)
			item.OK = true
			item.Booking = &b
			resp.Succeeded++
		}
		resp.Items[i] = item
	}
	return resp
}
