package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/auth"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/response"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/room"
)

var errOverrideForbidden = apperror.New(http.StatusForbidden, "manager override requires the manager capability")

type RoomHandler struct {
	service room.Service
}

func NewHandler(service room.Service) *RoomHandler {
	return &RoomHandler{service: service}
}

// List retrieves rooms of the hotel, optionally narrowed to one status, one
// room type or sellable rooms only.
func (h *RoomHandler) List(c *gin.Context) {
	var uri request.HotelRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var req ListRoomsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	filter := room.Filter{
		HotelID:      uri.HotelID,
		RoomTypeID:   req.RoomTypeID,
		Status:       domain.RoomStatus(req.Status),
		SellableOnly: req.SellableOnly,
		Page:         req.Page,
		PageSize:     req.PageSize,
		SortBy:       req.SortBy,
		SortOrder:    strings.ToUpper(req.SortOrder),
	}

	rooms, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]RoomResponse, len(rooms))
	for i, r := range rooms {
		items[i] = NewRoomResponse(r)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *RoomHandler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	r, err := h.service.GetByID(c.Request.Context(), req.HotelID, req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewRoomResponse(r))
}

// History lists the room's status events, newest first.
func (h *RoomHandler) History(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var req request.ListParams
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	events, total, err := h.service.History(c.Request.Context(), uri.HotelID, uri.ID, room.EventFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]StatusEventResponse, len(events))
	for i, e := range events {
		items[i] = NewStatusEventResponse(e)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

// Transition moves the room to any target. Override requests skip the
// transition table but are recorded with the manager's justification.
func (h *RoomHandler) Transition(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body TransitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	actor := auth.GetActor(c)
	source := domain.SourceStaffAction
	if body.Override {
		if !actor.Has(domain.CapManager) {
			response.Error(c, errOverrideForbidden)
			return
		}
		source = domain.SourceManagerOverride
	}

	res, err := h.service.Transition(c.Request.Context(), room.TransitionRequest{
		HotelID: uri.HotelID,
		RoomID:  uri.ID,
		To:      domain.RoomStatus(body.To),
		Actor:   actor,
		Source:  source,
		Note:    body.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewTransitionResponse(res))
}

func (h *RoomHandler) StartCleaning(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	res, err := h.service.StartCleaning(c.Request.Context(), uri.HotelID, uri.ID, auth.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewTransitionResponse(res))
}

func (h *RoomHandler) MarkCleaned(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	res, err := h.service.MarkCleaned(c.Request.Context(), uri.HotelID, uri.ID, auth.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewTransitionResponse(res))
}

func (h *RoomHandler) Inspect(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body InspectRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.service.Inspect(c.Request.Context(), uri.HotelID, uri.ID, auth.GetActor(c), *body.Passed, body.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewTransitionResponse(res))
}

func (h *RoomHandler) ReportMaintenance(c *gin.Context) {
	h.withNote(c, h.service.ReportMaintenance)
}

func (h *RoomHandler) MarkOutOfOrder(c *gin.Context) {
	h.withNote(c, h.service.MarkOutOfOrder)
}

func (h *RoomHandler) ReturnToService(c *gin.Context) {
	h.withNote(c, h.service.ReturnToService)
}

func (h *RoomHandler) ResolveMaintenance(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body ResolveMaintenanceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.service.ResolveMaintenance(c.Request.Context(), uri.HotelID, uri.ID, auth.GetActor(c), body.NeedsCleaning, body.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewTransitionResponse(res))
}

type noteAction func(ctx context.Context, hotelID, roomID string, actor domain.Actor, note string) (*room.TransitionResult, error)

func (h *RoomHandler) withNote(c *gin.Context, action noteAction) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body NoteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	res, err := action(c.Request.Context(), uri.HotelID, uri.ID, auth.GetActor(c), body.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewTransitionResponse(res))
}
