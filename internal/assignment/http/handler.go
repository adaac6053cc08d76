package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/assignment"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/auth"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/response"
	roomhttp "github.com/nekogravitycat/hotel-inventory-backend/internal/room/http"
)

type Handler struct {
	service assignment.Service
}

func NewHandler(service assignment.Service) *Handler {
	return &Handler{service: service}
}

// Assign links the room in the path to a confirmed booking, moving the
// booking off its previous room if it had one.
func (h *Handler) Assign(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body AssignRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.service.Assign(c.Request.Context(), assignment.AssignRequest{
		HotelID:   uri.HotelID,
		RoomID:    uri.ID,
		BookingID: body.BookingID,
		Actor:     auth.GetActor(c),
		Notes:     body.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAssignmentResponse(res))
}

func (h *Handler) Unassign(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body UnassignRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	res, err := h.service.Unassign(c.Request.Context(), assignment.UnassignRequest{
		HotelID: uri.HotelID,
		RoomID:  uri.ID,
		Actor:   auth.GetActor(c),
		Notes:   body.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAssignmentResponse(res))
}

// Candidates lists rooms the booking could be assigned to right now.
func (h *Handler) Candidates(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	rooms, err := h.service.FindCandidates(c.Request.Context(), uri.HotelID, uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]roomhttp.RoomResponse, len(rooms))
	for i, r := range rooms {
		items[i] = roomhttp.NewRoomResponse(r)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) AutoAssign(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	res, err := h.service.AutoAssign(c.Request.Context(), uri.HotelID, uri.ID, auth.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAssignmentResponse(res))
}
