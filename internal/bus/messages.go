package bus

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/UnknownOlympus/anchor/internal/models"
	"github.com/UnknownOlympus/anchor/internal/placement"
)

// ErrUnknownSubject is returned for messages on subjects the decoder does not handle.
var ErrUnknownSubject = errors.New("unknown subject")

type authorizationMessage struct {
	Status string `json:"status"`
}

type fixMessage struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
	Accuracy  float64   `json:"accuracy"`
}

type locationsMessage struct {
	Locations []fixMessage `json:"locations"`
}

type headingMessage struct {
	Heading *float64 `json:"heading"`
}

// renderMessage carries the rotation and pivot as column-major 4x4 matrices.
type renderMessage struct {
	Node             string      `json:"node"`
	Rotation         [16]float64 `json:"rotation"`
	Pivot            [16]float64 `json:"pivot"`
	Position         [3]float64  `json:"position"`
	Scale            float64     `json:"scale"`
	AnimationSeconds float64     `json:"animation_seconds"`
}

type locationRequestMessage struct {
	RequestedAt time.Time `json:"requested_at"`
}

// Decode turns a message received on one of the inbound subjects into an event.
// Fixes without a timestamp are stamped with received.
func (s Subjects) Decode(subject string, data []byte, received time.Time) (models.Event, error) {
	switch subject {
	case s.Authorization:
		var msg authorizationMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return models.Event{}, fmt.Errorf("failed to decode authorization message: %w", err)
		}
		status, err := models.ParseAuthorizationStatus(msg.Status)
		if err != nil {
			return models.Event{}, err
		}
		return models.Event{Kind: models.EventAuthorization, Status: status}, nil

	case s.Fixes:
		var msg locationsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return models.Event{}, fmt.Errorf("failed to decode locations message: %w", err)
		}
		fixes := make([]models.Fix, 0, len(msg.Locations))
		for _, loc := range msg.Locations {
			timestamp := loc.Timestamp
			if timestamp.IsZero() {
				timestamp = received
			}
			fixes = append(fixes, models.Fix{
				Point:     models.GeoPoint{Latitude: loc.Latitude, Longitude: loc.Longitude},
				Timestamp: timestamp,
				Accuracy:  loc.Accuracy,
			})
		}
		return models.Event{Kind: models.EventLocations, Fixes: fixes}, nil

	case s.Heading:
		var msg headingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return models.Event{}, fmt.Errorf("failed to decode heading message: %w", err)
		}
		if msg.Heading == nil {
			return models.Event{}, errors.New("heading message without heading")
		}
		return models.Event{Kind: models.EventHeading, Heading: *msg.Heading}, nil

	default:
		return models.Event{}, fmt.Errorf("%w: %s", ErrUnknownSubject, subject)
	}
}

func encodeRender(update placement.Update) ([]byte, error) {
	return json.Marshal(renderMessage{
		Node:             update.Node,
		Rotation:         [16]float64(update.Rotation),
		Pivot:            [16]float64(update.Pivot),
		Position:         [3]float64(update.Position),
		Scale:            update.Scale,
		AnimationSeconds: update.Animation.Seconds(),
	})
}
