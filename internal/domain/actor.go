package domain

import (
	"time"

	"github.com/google/uuid"
)

// Staff capabilities resolved by the identity layer.
const (
	CapRooms       = "rooms"
	CapMaintenance = "maintenance"
	CapFrontDesk   = "front_desk"
	CapManager     = "manager"
)

// Actor is the resolved identity performing an operation.
type Actor struct {
	ID           string
	HotelID      string
	Capabilities []string
}

// Has reports whether the actor holds any of the given capabilities.
func (a Actor) Has(caps ...string) bool {
	for _, held := range a.Capabilities {
		for _, c := range caps {
			if held == c {
				return true
			}
		}
	}
	return false
}

// SystemActor identifies automated callers such as the payment webhook.
func SystemActor(hotelID, name string) Actor {
	return Actor{ID: "system:" + name, HotelID: hotelID}
}

// Entity types carried on events.
const (
	EntityRoom    = "room"
	EntityBooking = "booking"
)

// Event describes one state change, suitable for the notifier and audit consumers.
type Event struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	HotelID    string    `json:"hotel_id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	FromState  string    `json:"from_state"`
	ToState    string    `json:"to_state"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent builds an event with a fresh identifier.
func NewEvent(name, hotelID, entityType, entityID, from, to, actorID string, at time.Time) *Event {
	return &Event{
		ID:         uuid.NewString(),
		Name:       name,
		HotelID:    hotelID,
		EntityType: entityType,
		EntityID:   entityID,
		FromState:  from,
		ToState:    to,
		ActorID:    actorID,
		OccurredAt: at.UTC(),
	}
}
