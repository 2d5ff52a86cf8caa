package models

import (
	"time"

	"github.com/google/uuid"
)

// EventKind identifies what an Event carries.
type EventKind string

const (
	EventAuthorization EventKind = "authorization"
	EventLocations     EventKind = "locations"
	EventHeading       EventKind = "heading"
)

// Event is one notification from the location or motion collaborators.
// Events are handled strictly one at a time in arrival order.
type Event struct {
	Kind    EventKind
	Status  AuthorizationStatus // Set for EventAuthorization.
	Fixes   []Fix               // Set for EventLocations.
	Heading float64             // Set for EventHeading, degrees.
}

// PlacementRecord is one row of placement history.
type PlacementRecord struct {
	SessionID  uuid.UUID
	RecordedAt time.Time
	Observer   GeoPoint
	Anchor     GeoPoint
	Heading    float64    // Observer heading in degrees.
	Distance   float64    // Meters between observer and anchor.
	Bearing    float64    // Radians, as computed by the great-circle bearing.
	Scale      float64    // Uniform scale applied to the model.
	Position   [3]float64 // Position in the world-tracking frame, meters.
	Animated   bool       // False for the first placement.
}
