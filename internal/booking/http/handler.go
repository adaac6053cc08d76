package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/auth"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/booking"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/response"
)

type Handler struct {
	service booking.Service
	now     func() time.Time
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{
		service: service,
		now:     time.Now,
	}
}

func (h *Handler) List(c *gin.Context) {
	var uri request.HotelRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	filter := booking.Filter{
		HotelID:    uri.HotelID,
		GuestID:    req.GuestID,
		RoomTypeID: req.RoomTypeID,
		Status:     domain.BookingStatus(strings.ToUpper(req.Status)),
		From:       req.From,
		To:         req.To,
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortBy:     req.SortBy,
		SortOrder:  strings.ToUpper(req.SortOrder),
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), uri.HotelID, uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Create(c *gin.Context) {
	var uri request.HotelRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	checkIn, checkOut, err := body.Dates()
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.Create(c.Request.Context(), booking.CreateRequest{
		HotelID:     uri.HotelID,
		RoomTypeID:  body.RoomTypeID,
		GuestID:     body.GuestID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Adults:      body.Adults,
		Children:    body.Children,
		TotalAmount: body.TotalAmount,
		Currency:    body.Currency,
		Actor:       auth.GetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewLifecycleResponse(res))
}

func (h *Handler) Accept(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	res, err := h.service.Accept(c.Request.Context(), uri.HotelID, uri.ID, auth.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewLifecycleResponse(res))
}

func (h *Handler) Decline(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body DeclineRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	res, err := h.service.Decline(c.Request.Context(), uri.HotelID, uri.ID, auth.GetActor(c), body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewLifecycleResponse(res))
}

func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body CancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	res, err := h.service.Cancel(c.Request.Context(), uri.HotelID, uri.ID, auth.GetActor(c), body.Reason, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewLifecycleResponse(res))
}

// CancellationQuote previews the fee and refund a cancellation would produce
// right now, without changing anything.
func (h *Handler) CancellationQuote(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	bd, err := h.service.QuoteCancellation(c.Request.Context(), uri.HotelID, uri.ID, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, bd)
}

func (h *Handler) CheckIn(c *gin.Context) {
	h.lifecycle(c, h.service.CheckIn)
}

func (h *Handler) CheckOut(c *gin.Context) {
	h.lifecycle(c, h.service.CheckOut)
}

func (h *Handler) NoShow(c *gin.Context) {
	h.lifecycle(c, h.service.MarkNoShow)
}

func (h *Handler) BulkCheckOut(c *gin.Context) {
	var uri request.HotelRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body BulkCheckOutRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	results, err := h.service.BulkCheckOut(c.Request.Context(), uri.HotelID, body.BookingIDs, auth.GetActor(c), h.now())
	if err != nil {
		response.Error(c, err)
		return
	}

	// Per-item failures are reported in the body; the batch itself succeeded.
	c.JSON(http.StatusOK, NewBulkResponse(results))
}

// AuthorizationWebhook records a payment authorization pushed by the gateway.
// It is not hotel-scoped by token, so the hotel comes from the payload.
func (h *Handler) AuthorizationWebhook(c *gin.Context) {
	var body AuthorizationWebhook
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.service.MarkAuthorized(c.Request.Context(), body.HotelID, body.BookingID, body.AuthorizationRef)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewLifecycleResponse(res))
}

type lifecycleAction func(ctx context.Context, hotelID, bookingID string, actor domain.Actor, now time.Time) (*booking.Result, error)

func (h *Handler) lifecycle(c *gin.Context, action lifecycleAction) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	res, err := action(c.Request.Context(), uri.HotelID, uri.ID, auth.GetActor(c), h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewLifecycleResponse(res))
}
