// Package repository stores reference points and placement history in PostgreSQL.
package repository

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/anchor/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of *pgxpool.Pool the repository needs.
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db  Database
	log *slog.Logger
}

type Interface interface {
	FetchReferencePoints(ctx context.Context, anchor string) ([]models.ReferencePoint, error)
	UpdateReferenceCoordinates(ctx context.Context, pointID int, point models.GeoPoint) error
	IncrementFailureCount(ctx context.Context, pointID int, errMsg string) error
	SavePlacement(ctx context.Context, record models.PlacementRecord) error
}

// NewRepository creates a new instance of Repository with the provided Database.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}
