package ports

import (
	"context"

	"github.com/eparriel/pfe-backend/internal/core/domain"
)

// MetricsStore is the time-series store holding vivarium measurements.
type MetricsStore interface {
	// CreateBucket reports false when the vivarium bucket already exists.
	CreateBucket(ctx context.Context, vivariumID int64) (bool, error)
	Insert(ctx context.Context, m domain.Measurement) error
	Latest(ctx context.Context, vivariumID int64, measurement string, hours int) ([]domain.Reading, error)
	// DeleteBucket is a no-op when the bucket does not exist.
	DeleteBucket(ctx context.Context, vivariumID int64) error
	Ping(ctx context.Context) error
}

// MeasurementInput is the DTO passed from the transport layer to TelemetryService.
type MeasurementInput struct {
	VivariumID  int64
	Measurement string
	Value       float64
	Tags        map[string]string
}

// ReadingsQuery selects the readings of one measurement over the last Hours.
type ReadingsQuery struct {
	VivariumID  int64
	Measurement string
	Hours       int
}

type TelemetryService interface {
	CreateBucket(ctx context.Context, vivariumID int64) (bool, error)
	Record(ctx context.Context, in MeasurementInput) error
	Readings(ctx context.Context, q ReadingsQuery) ([]domain.Reading, error)
	DeleteBucket(ctx context.Context, vivariumID int64) error
}
