package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/cancellation"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/response"
)

type PolicyHandler struct {
	service cancellation.Service
}

func NewHandler(service cancellation.Service) *PolicyHandler {
	return &PolicyHandler{service: service}
}

// Get returns the live policy that new bookings will snapshot.
func (h *PolicyHandler) Get(c *gin.Context) {
	var uri request.HotelRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	p, err := h.service.Get(c.Request.Context(), uri.HotelID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewPolicyResponse(p))
}

// Replace swaps the live policy. Existing bookings keep their snapshot.
// Access Control: managers only.
func (h *PolicyHandler) Replace(c *gin.Context) {
	var uri request.HotelRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body ReplacePolicyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	req := cancellation.ReplaceRequest{Name: body.Name}
	for _, t := range body.Tiers {
		req.Tiers = append(req.Tiers, t.toDomain())
	}
	if body.Default != nil {
		d := body.Default.toDomain()
		req.Default = &d
	}

	p, err := h.service.Replace(c.Request.Context(), uri.HotelID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewPolicyResponse(*p))
}
