package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/pkg/response"
)

// AuthRequired is a Gin middleware that validates JWT from Authorization: Bearer <token>
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing Authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid Authorization header format",
			})
			return
		}

		claims, err := jwtManager.ParseAndValidate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		SetActor(c, domain.Actor{
			ID:           claims.UserID,
			HotelID:      claims.HotelID,
			Capabilities: claims.Capabilities,
		})

		c.Next()
	}
}

// RequireHotelScope rejects requests whose :hotel_id path parameter differs
// from the hotel the token was issued for.
// It MUST be used after AuthRequired.
func RequireHotelScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor.ID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if hotelID := c.Param("hotel_id"); hotelID != "" && hotelID != actor.HotelID {
			response.Error(c, domain.ErrHotelMismatch)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireCapability ensures the actor holds at least one of caps.
// Managers pass every capability check.
func RequireCapability(caps ...string) gin.HandlerFunc {
	allowed := append([]string{domain.CapManager}, caps...)
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor.ID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !actor.Has(allowed...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: missing capability"})
			return
		}
		c.Next()
	}
}

// RequireToken guards machine-to-machine endpoints such as the payment webhook
// with a shared secret sent in the X-Webhook-Token header.
func RequireToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-Webhook-Token")
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook token"})
			return
		}
		c.Next()
	}
}
