package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/UnknownOlympus/anchor/internal/geocoding"
	"github.com/UnknownOlympus/anchor/internal/metrics"
	"github.com/UnknownOlympus/anchor/internal/models"
	"github.com/UnknownOlympus/anchor/internal/repository"
	"golang.org/x/time/rate"
)

// ErrNoResolvedPoints is returned when no reference point of an anchor has coordinates.
var ErrNoResolvedPoints = errors.New("no reference point has coordinates")

// ReferenceSource yields the reference points of an anchor in their stored order.
type ReferenceSource interface {
	Resolve(ctx context.Context, anchor string) ([]models.GeoPoint, error)
}

// StaticReferences serves reference points known up front, such as those from configuration.
type StaticReferences []models.GeoPoint

// Resolve returns a copy of the points regardless of anchor.
func (s StaticReferences) Resolve(_ context.Context, _ string) ([]models.GeoPoint, error) {
	if len(s) == 0 {
		return nil, ErrNoResolvedPoints
	}

	return slices.Clone(s), nil
}

// ReferenceResolver loads reference points from the repository and geocodes those that
// only have an address, using a pool of workers sharing one rate limit.
type ReferenceResolver struct {
	log          *slog.Logger
	repo         repository.Interface
	provider     geocoding.Provider // Optional; without it pending points are skipped.
	providerName string
	metrics      *metrics.Metrics
	numWorkers   int
	limiter      *rate.Limiter
}

// NewReferenceResolver creates a resolver. ratePerSecond <= 0 disables throttling.
func NewReferenceResolver(
	log *slog.Logger,
	repo repository.Interface,
	provider geocoding.Provider,
	providerName string,
	metrics *metrics.Metrics,
	numWorkers int,
	ratePerSecond int,
) *ReferenceResolver {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &ReferenceResolver{
		log:          log,
		repo:         repo,
		provider:     provider,
		providerName: providerName,
		metrics:      metrics,
		numWorkers:   numWorkers,
		limiter:      rate.NewLimiter(limit, 1),
	}
}

type lookup struct {
	index int
	point models.ReferencePoint
}

// Resolve returns the coordinates of every usable reference point of anchor.
// Points whose lookup fails are left out and their failure is recorded.
func (rr *ReferenceResolver) Resolve(ctx context.Context, anchor string) ([]models.GeoPoint, error) {
	points, err := rr.repo.FetchReferencePoints(ctx, anchor)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reference points: %w", err)
	}

	var pending []lookup
	for idx, point := range points {
		if point.Point == nil && point.Address != "" {
			pending = append(pending, lookup{index: idx, point: point})
		}
	}

	switch {
	case len(pending) == 0:
	case rr.provider == nil:
		rr.log.WarnContext(ctx, "Reference points need geocoding but no provider is configured",
			"anchor", anchor, "pending", len(pending))
	default:
		rr.geocode(ctx, points, pending)
		if err = ctx.Err(); err != nil {
			return nil, err
		}
	}

	resolved := make([]models.GeoPoint, 0, len(points))
	for _, point := range points {
		if point.Point != nil {
			resolved = append(resolved, *point.Point)
		}
	}
	if len(resolved) == 0 {
		return nil, fmt.Errorf("%w: anchor %q", ErrNoResolvedPoints, anchor)
	}

	rr.log.InfoContext(ctx, "Reference points resolved", "anchor", anchor, "count", len(resolved),
		"skipped", len(points)-len(resolved))
	return resolved, nil
}

// geocode fills points[i].Point for every successful lookup. Each worker writes only the
// slots of the jobs it receives.
func (rr *ReferenceResolver) geocode(ctx context.Context, points []models.ReferencePoint, pending []lookup) {
	rr.log.InfoContext(ctx, "Found reference points to geocode. Starting worker pool.",
		"jobs", len(pending), "num_workers", rr.numWorkers)

	jobs := make(chan lookup, len(pending))
	var wgr sync.WaitGroup

	for i := 1; i <= min(rr.numWorkers, len(pending)); i++ {
		wgr.Add(1)
		go rr.worker(ctx, i, &wgr, jobs, points)
	}

	for _, job := range pending {
		jobs <- job
	}
	close(jobs)

	wgr.Wait()
}

func (rr *ReferenceResolver) worker(
	ctx context.Context,
	idx int,
	wg *sync.WaitGroup,
	jobs <-chan lookup,
	points []models.ReferencePoint,
) {
	defer wg.Done()
	for job := range jobs {
		if err := rr.limiter.Wait(ctx); err != nil {
			rr.log.WarnContext(ctx, "Geocoding aborted", "worker", idx, "point", job.point.ID, "error", err)
			return
		}

		rr.metrics.ActiveWorkers.Inc()
		point, err := rr.lookup(ctx, idx, job.point)
		rr.metrics.ActiveWorkers.Dec()

		if err == nil {
			points[job.index].Point = point
		}
	}
}

func (rr *ReferenceResolver) lookup(
	ctx context.Context,
	idx int,
	ref models.ReferencePoint,
) (*models.GeoPoint, error) {
	rr.log.DebugContext(ctx, "Geocoding reference point", "worker", idx, "point", ref.ID)

	startTime := time.Now()
	point, err := rr.provider.Geocode(ctx, ref.Address)
	rr.metrics.RequestSeconds.WithLabelValues(rr.providerName).Observe(time.Since(startTime).Seconds())

	if err == nil && (point == nil || !point.Valid()) {
		err = geocoding.ErrEmptyResponse
	}
	if err != nil {
		rr.log.ErrorContext(ctx, "Failed to geocode", "worker", idx, "point", ref.ID, "error", err)
		rr.metrics.GeocodingErrors.Inc()

		if errInc := rr.repo.IncrementFailureCount(ctx, ref.ID, err.Error()); errInc != nil {
			rr.log.ErrorContext(ctx, "Could not update failure count for reference point",
				"worker", idx, "point", ref.ID, "error", errInc)
		}
		return nil, err
	}

	if err = rr.repo.UpdateReferenceCoordinates(ctx, ref.ID, *point); err != nil {
		rr.log.ErrorContext(ctx, "Failed to store coordinates for reference point",
			"worker", idx, "point", ref.ID, "error", err)
	}

	return point, nil
}
