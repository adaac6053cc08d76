package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

const actorKey = "actor"

// GetActor returns the authenticated staff actor, or the zero Actor when the
// request was not authenticated.
func GetActor(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(domain.Actor); ok {
			return a
		}
	}
	return domain.Actor{}
}

// SetActor stores the actor for later handlers.
func SetActor(c *gin.Context, a domain.Actor) {
	c.Set(actorKey, a)
}
