package models

import (
	"fmt"
	"strings"
	"time"
)

// AuthorizationStatus mirrors the location-service authorization states.
type AuthorizationStatus int

const (
	AuthorizationNotDetermined AuthorizationStatus = iota
	AuthorizationDenied
	AuthorizationRestricted
	AuthorizationAuthorized
)

var authorizationNames = map[AuthorizationStatus]string{
	AuthorizationNotDetermined: "not-determined",
	AuthorizationDenied:        "denied",
	AuthorizationRestricted:    "restricted",
	AuthorizationAuthorized:    "authorized",
}

func (s AuthorizationStatus) String() string {
	if name, ok := authorizationNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// PermitsLocation reports whether a location fix may be requested.
func (s AuthorizationStatus) PermitsLocation() bool {
	return s == AuthorizationAuthorized
}

// ParseAuthorizationStatus converts the wire name of a status into its value.
func ParseAuthorizationStatus(name string) (AuthorizationStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for status, statusName := range authorizationNames {
		if statusName == normalized {
			return status, nil
		}
	}
	return AuthorizationNotDetermined, fmt.Errorf("unknown authorization status: %q", name)
}

// Fix is a single reading delivered by the location service.
type Fix struct {
	Point     GeoPoint  `json:"point"`
	Timestamp time.Time `json:"timestamp"`
	Accuracy  float64   `json:"accuracy"` // Horizontal accuracy in meters.
}

// ObserverState is the most recently known state of the viewer.
type ObserverState struct {
	Position  GeoPoint  // Position is the last accepted fix.
	Heading   float64   // Heading in degrees, clockwise from true north, within [0, 360).
	Distance  float64   // Distance to the anchor point in meters.
	HasFix    bool      // HasFix is false until the first fix has been handled.
	UpdatedAt time.Time // UpdatedAt is the timestamp of the last accepted fix.
}
