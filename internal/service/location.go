// Package service runs the long-lived loops of the application: the location event loop
// that keeps the model placed and the reference resolver that geocodes reference points.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/anchor/internal/metrics"
	"github.com/UnknownOlympus/anchor/internal/models"
	"github.com/UnknownOlympus/anchor/internal/repository"
	"github.com/UnknownOlympus/anchor/internal/tracker"
	"github.com/google/uuid"
)

// EventHandler is implemented by *tracker.Session.
type EventHandler interface {
	HandleAuthorization(ctx context.Context, status models.AuthorizationStatus) error
	HandleHeading(ctx context.Context, heading float64) error
	HandleLocations(ctx context.Context, fixes []models.Fix) (tracker.Result, error)
}

// LocationService feeds location events to a session strictly one at a time.
type LocationService struct {
	log       *slog.Logger
	handler   EventHandler
	repo      repository.Interface // Optional; nil disables placement history.
	metrics   *metrics.Metrics
	sessionID uuid.UUID
	now       func() time.Time
}

// NewLocationService creates a service with a fresh session identifier.
func NewLocationService(
	log *slog.Logger,
	handler EventHandler,
	repo repository.Interface,
	metrics *metrics.Metrics,
) *LocationService {
	return &LocationService{
		log:       log,
		handler:   handler,
		repo:      repo,
		metrics:   metrics,
		sessionID: uuid.New(),
		now:       time.Now,
	}
}

// SessionID identifies the rows this service writes to the placement history.
func (ls *LocationService) SessionID() uuid.UUID {
	return ls.sessionID
}

// Run handles events in arrival order until the context is cancelled or the channel is closed.
// A failing event is logged and the loop waits for the next one.
func (ls *LocationService) Run(ctx context.Context, events <-chan models.Event) {
	ls.log.InfoContext(ctx, "Location service started", "session", ls.sessionID)

	for {
		select {
		case <-ctx.Done():
			ls.log.InfoContext(ctx, "Location service stopped.")
			return
		case event, ok := <-events:
			if !ok {
				ls.log.InfoContext(ctx, "Event stream closed, location service stopped.")
				return
			}
			ls.handle(ctx, event)
		}
	}
}

func (ls *LocationService) handle(ctx context.Context, event models.Event) {
	start := time.Now()
	defer func() {
		ls.metrics.EventSeconds.WithLabelValues(string(event.Kind)).Observe(time.Since(start).Seconds())
	}()

	switch event.Kind {
	case models.EventAuthorization:
		if err := ls.handler.HandleAuthorization(ctx, event.Status); err != nil {
			ls.log.ErrorContext(ctx, "Failed to handle authorization change", "status", event.Status, "error", err)
		}
	case models.EventHeading:
		if err := ls.handler.HandleHeading(ctx, event.Heading); err != nil {
			ls.log.ErrorContext(ctx, "Failed to handle heading", "heading", event.Heading, "error", err)
		}
	case models.EventLocations:
		ls.handleLocations(ctx, event.Fixes)
	default:
		ls.log.WarnContext(ctx, "Unknown event kind ignored", "kind", event.Kind)
	}
}

func (ls *LocationService) handleLocations(ctx context.Context, fixes []models.Fix) {
	result, err := ls.handler.HandleLocations(ctx, fixes)
	if err != nil {
		ls.metrics.FixesProcessed.WithLabelValues(metrics.StatusRejected).Inc()
		if !errors.Is(err, tracker.ErrNoFix) {
			ls.log.ErrorContext(ctx, "Failed to handle location fix", "error", err)
		}
		return
	}

	status := metrics.StatusPlaced
	if result.Update.Animated() {
		status = metrics.StatusUpdated
	}
	ls.metrics.FixesProcessed.WithLabelValues(status).Inc()
	ls.metrics.ObserverDistance.Set(result.Observer.Distance)
	ls.metrics.PlacementScale.Set(result.Update.Scale)

	if ls.repo == nil {
		return
	}

	record := models.PlacementRecord{
		SessionID:  ls.sessionID,
		RecordedAt: ls.now().UTC(),
		Observer:   result.Observer.Position,
		Anchor:     result.Anchor,
		Heading:    result.Observer.Heading,
		Distance:   result.Observer.Distance,
		Bearing:    result.Bearing,
		Scale:      result.Update.Scale,
		Position:   [3]float64(result.Update.Position),
		Animated:   result.Update.Animated(),
	}
	if err = ls.repo.SavePlacement(ctx, record); err != nil {
		ls.log.ErrorContext(ctx, "Failed to save placement history", "session", ls.sessionID, "error", err)
	}
}
