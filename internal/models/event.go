package models

import "time"

// Routing keys for guitar lifecycle events.
const (
	EventGuitarCreated = "guitar.created"
	EventGuitarUpdated = "guitar.updated"
	EventGuitarDeleted = "guitar.deleted"
)

// GuitarEvent is published to the message broker whenever an inventory
// record changes.
type GuitarEvent struct {
	Event      string    `json:"event"`
	GuitarID   uint      `json:"guitarId"`
	UserID     string    `json:"userId"`
	Model      string    `json:"model,omitempty"`
	Brand      string    `json:"brand,omitempty"`
	Price      float64   `json:"price,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
