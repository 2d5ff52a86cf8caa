package repository

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/anchor/internal/models"
)

// MaxGeocodingAttempts is the number of failed lookups after which a point without
// coordinates is no longer returned.
const MaxGeocodingAttempts = 5

const schema = `
	CREATE TABLE IF NOT EXISTS reference_points (
		point_id           SERIAL PRIMARY KEY,
		anchor             TEXT NOT NULL,
		ordinal            INTEGER NOT NULL DEFAULT 0,
		address            TEXT NOT NULL DEFAULT '',
		latitude           DOUBLE PRECISION,
		longitude          DOUBLE PRECISION,
		geocoding_attempts INTEGER NOT NULL DEFAULT 0,
		geocoding_error    TEXT
	);
	CREATE INDEX IF NOT EXISTS reference_points_anchor_idx ON reference_points (anchor, ordinal);
	CREATE TABLE IF NOT EXISTS placement_history (
		id           BIGSERIAL PRIMARY KEY,
		session_id   UUID NOT NULL,
		recorded_at  TIMESTAMPTZ NOT NULL,
		observer_lat DOUBLE PRECISION NOT NULL,
		observer_lon DOUBLE PRECISION NOT NULL,
		anchor_lat   DOUBLE PRECISION NOT NULL,
		anchor_lon   DOUBLE PRECISION NOT NULL,
		heading      DOUBLE PRECISION NOT NULL,
		distance     DOUBLE PRECISION NOT NULL,
		bearing      DOUBLE PRECISION NOT NULL,
		scale        DOUBLE PRECISION NOT NULL,
		pos_x        DOUBLE PRECISION NOT NULL,
		pos_y        DOUBLE PRECISION NOT NULL,
		pos_z        DOUBLE PRECISION NOT NULL,
		animated     BOOLEAN NOT NULL
	);
`

// Migrate creates the tables if they do not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	r.log.InfoContext(ctx, "Database schema is up to date")
	return nil
}

// FetchReferencePoints returns the reference points of anchor in their stored order.
// Points that still lack coordinates are included while they have geocoding attempts left;
// their Point is nil.
func (r *Repository) FetchReferencePoints(ctx context.Context, anchor string) ([]models.ReferencePoint, error) {
	query := `
		SELECT point_id, address, latitude, longitude
		FROM reference_points
		WHERE
			anchor = $1
			AND (latitude IS NOT NULL OR geocoding_attempts < $2)
		ORDER BY ordinal ASC, point_id ASC;
	`

	rows, err := r.db.Query(ctx, query, anchor, MaxGeocodingAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference points: %w", err)
	}
	defer rows.Close()

	var points []models.ReferencePoint
	for rows.Next() {
		var (
			point    models.ReferencePoint
			lat, lon *float64
		)
		if errScan := rows.Scan(&point.ID, &point.Address, &lat, &lon); errScan != nil {
			return nil, fmt.Errorf("failed to scan reference point: %w", errScan)
		}
		if lat != nil && lon != nil {
			point.Point = &models.GeoPoint{Latitude: *lat, Longitude: *lon}
		}
		points = append(points, point)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	r.log.DebugContext(ctx, "Reference points loaded", "anchor", anchor, "count", len(points))
	return points, nil
}

// UpdateReferenceCoordinates stores geocoded coordinates and clears the last error.
func (r *Repository) UpdateReferenceCoordinates(ctx context.Context, pointID int, point models.GeoPoint) error {
	query := `
		UPDATE reference_points
		SET
			latitude = $1,
			longitude = $2,
			geocoding_error = NULL
		WHERE
			point_id = $3;
	`

	_, err := r.db.Exec(ctx, query, point.Latitude, point.Longitude, pointID)
	if err != nil {
		return fmt.Errorf("failed to update reference point coordinates: %w", err)
	}

	return nil
}

// IncrementFailureCount records a failed geocoding attempt for a reference point.
func (r *Repository) IncrementFailureCount(ctx context.Context, pointID int, errMsg string) error {
	query := `
		UPDATE reference_points
		SET
			geocoding_attempts = geocoding_attempts + 1,
			geocoding_error = $1
		WHERE point_id = $2;
	`

	_, err := r.db.Exec(ctx, query, errMsg, pointID)
	if err != nil {
		return fmt.Errorf("failed to update geocoding error and number of attempts: %w", err)
	}

	return nil
}

// SavePlacement appends one placement to the history.
func (r *Repository) SavePlacement(ctx context.Context, record models.PlacementRecord) error {
	query := `
		INSERT INTO placement_history (
			session_id, recorded_at, observer_lat, observer_lon, anchor_lat, anchor_lon,
			heading, distance, bearing, scale, pos_x, pos_y, pos_z, animated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`

	_, err := r.db.Exec(ctx, query,
		record.SessionID, record.RecordedAt,
		record.Observer.Latitude, record.Observer.Longitude,
		record.Anchor.Latitude, record.Anchor.Longitude,
		record.Heading, record.Distance, record.Bearing, record.Scale,
		record.Position[0], record.Position[1], record.Position[2],
		record.Animated,
	)
	if err != nil {
		return fmt.Errorf("failed to save placement: %w", err)
	}

	return nil
}
