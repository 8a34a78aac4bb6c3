package store

import (
	"context"
	"errors"

	"pest-alert-system/services/api/models"
)

var (
	// ErrNotFound is returned when no report matches the given id.
	ErrNotFound = errors.New("report not found")
	// ErrInvalidID is returned when the given id is not a valid report
	// identifier.
	ErrInvalidID = errors.New("invalid report id")
)

// ReportStore is the persistence boundary for pest reports. The production
// implementation delegates to MongoDB; tests use the in-memory store.
type ReportStore interface {
	// Insert persists a new report and assigns its identifier.
	Insert(ctx context.Context, report *models.Report) error
	// FindByID returns the report with the given id or ErrNotFound.
	FindByID(ctx context.Context, id string) (*models.Report, error)
	// FindAll returns every report, newest first.
	FindAll(ctx context.Context) ([]models.Report, error)
	// FindByFarmer returns reports whose farmer name matches, newest first.
	FindByFarmer(ctx context.Context, farmerName string) ([]models.Report, error)
	// UpdateStatus atomically sets the status of one report and returns the
	// updated document, or ErrNotFound.
	UpdateStatus(ctx context.Context, id string, status string) (*models.Report, error)
	// CountByStatus counts reports currently in the given status.
	CountByStatus(ctx context.Context, status string) (int64, error)
}
