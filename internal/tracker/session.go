// Package tracker reacts to location-service events and keeps the anchored
// model placed relative to the observer.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/UnknownOlympus/anchor/internal/geodesy"
	"github.com/UnknownOlympus/anchor/internal/models"
	"github.com/UnknownOlympus/anchor/internal/placement"
)

var (
	// ErrNoFix is returned when a location event carries no readings.
	ErrNoFix = errors.New("location event carries no fix")
	// ErrNoReferencePoints is returned when the reference set is empty.
	ErrNoReferencePoints = errors.New("at least one reference point is required")
	// ErrInvalidHeading is returned for non-finite headings.
	ErrInvalidHeading = errors.New("heading must be finite")
)

// LocationRequester asks the location service for a single fix.
type LocationRequester interface {
	RequestLocation(ctx context.Context) error
}

// Placer is the part of the placement controller the session drives.
type Placer interface {
	Apply(ctx context.Context, target placement.Target) (placement.Update, error)
}

// Result describes what a handled fix produced.
type Result struct {
	Observer models.ObserverState
	Anchor   models.GeoPoint
	Bearing  float64 // Radians from observer to anchor.
	Update   placement.Update
}

// Option configures a Session.
type Option func(*Session)

// WithAnchorCache makes the session compute the anchor once per reference set
// instead of on every fix. The centroid depends only on the reference set, so
// the placements are identical.
func WithAnchorCache() Option {
	return func(s *Session) {
		s.cacheAnchor = true
	}
}

// WithDistance replaces the great-circle distance function.
func WithDistance(distance func(from, to models.GeoPoint) float64) Option {
	return func(s *Session) {
		s.distance = distance
	}
}

// Session owns the observer state and the single placement of one AR session.
// Events must be delivered one at a time; the session is not safe for concurrent use.
type Session struct {
	log        *slog.Logger
	placer     Placer
	requester  LocationRequester
	references []models.GeoPoint
	distance   func(from, to models.GeoPoint) float64

	cacheAnchor bool
	anchor      *models.GeoPoint
	observer    models.ObserverState
}

// NewSession creates a session for the given reference points.
func NewSession(
	log *slog.Logger,
	placer Placer,
	requester LocationRequester,
	references []models.GeoPoint,
	opts ...Option,
) (*Session, error) {
	s := &Session{
		log:       log,
		placer:    placer,
		requester: requester,
		distance:  geodesy.Distance,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.SetReferencePoints(references); err != nil {
		return nil, err
	}

	return s, nil
}

// SetReferencePoints replaces the reference set and drops any cached anchor.
func (s *Session) SetReferencePoints(points []models.GeoPoint) error {
	if len(points) == 0 {
		return ErrNoReferencePoints
	}
	for idx, point := range points {
		if !point.Valid() {
			return fmt.Errorf("%w: reference %d %s", geodesy.ErrInvalidPoint, idx, point)
		}
	}

	s.references = slices.Clone(points)
	s.anchor = nil

	return nil
}

// Observer returns a copy of the observer state.
func (s *Session) Observer() models.ObserverState {
	return s.observer
}

// HandleAuthorization requests one fix when the status permits location access.
// Any other status leaves the session untouched.
func (s *Session) HandleAuthorization(ctx context.Context, status models.AuthorizationStatus) error {
	if !status.PermitsLocation() {
		s.log.WarnContext(ctx, "Location access not permitted, waiting for authorization", "status", status)
		return nil
	}

	s.log.InfoContext(ctx, "Location access authorized, requesting a fix")
	if err := s.requester.RequestLocation(ctx); err != nil {
		return fmt.Errorf("failed to request location: %w", err)
	}

	return nil
}

// HandleHeading records the observer heading in degrees, normalised to [0, 360).
func (s *Session) HandleHeading(ctx context.Context, heading float64) error {
	if math.IsNaN(heading) || math.IsInf(heading, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidHeading, heading)
	}

	s.observer.Heading = geodesy.NormalizeDegrees(heading)
	s.log.DebugContext(ctx, "Observer heading updated", "heading", s.observer.Heading)

	return nil
}

// HandleLocations takes the most recent fix of the batch as the observer
// position, recomputes the anchor and distance, and places or updates the model.
func (s *Session) HandleLocations(ctx context.Context, fixes []models.Fix) (Result, error) {
	if len(fixes) == 0 {
		s.log.WarnContext(ctx, "Location event without fixes ignored")
		return Result{}, ErrNoFix
	}

	fix := fixes[len(fixes)-1]
	if !fix.Point.Valid() {
		return Result{}, fmt.Errorf("%w: observer %s", geodesy.ErrInvalidPoint, fix.Point)
	}

	s.observer.Position = fix.Point
	s.observer.UpdatedAt = fix.Timestamp
	s.observer.HasFix = true

	anchor, err := s.anchorPoint()
	if err != nil {
		return Result{}, err
	}

	s.observer.Distance = s.distance(s.observer.Position, anchor)
	bearing := geodesy.Bearing(s.observer.Position, anchor)

	s.log.DebugContext(ctx, "Observer fix accepted",
		"position", s.observer.Position.String(),
		"anchor", anchor.String(),
		"distance", s.observer.Distance,
		"bearing", geodesy.NormalizeBearing(bearing))

	update, err := s.placer.Apply(ctx, placement.Target{
		Bearing:  bearing,
		Distance: s.observer.Distance,
		Heading:  s.observer.Heading,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to place model: %w", err)
	}

	return Result{
		Observer: s.observer,
		Anchor:   anchor,
		Bearing:  bearing,
		Update:   update,
	}, nil
}

func (s *Session) anchorPoint() (models.GeoPoint, error) {
	if s.cacheAnchor && s.anchor != nil {
		return *s.anchor, nil
	}

	anchor, err := geodesy.Centroid(s.references)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("failed to compute anchor point: %w", err)
	}

	if s.cacheAnchor {
		s.anchor = &anchor
	}

	return anchor, nil
}
