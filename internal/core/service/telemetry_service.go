package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eparriel/pfe-backend/internal/core/domain"
	"github.com/eparriel/pfe-backend/internal/core/ports"
)

type telemetryService struct {
	store ports.MetricsStore
	log   zerolog.Logger
	now   func() time.Time
}

// NewTelemetryService returns a TelemetryService backed by store.
func NewTelemetryService(store ports.MetricsStore, log zerolog.Logger) ports.TelemetryService {
	return &telemetryService{store: store, log: log, now: time.Now}
}

func (s *telemetryService) CreateBucket(ctx context.Context, vivariumID int64) (bool, error) {
	if vivariumID <= 0 {
		return false, fmt.Errorf("%w: vivarium id must be positive", domain.ErrInvalidMeasurement)
	}
	created, err := s.store.CreateBucket(ctx, vivariumID)
	if err != nil {
		return false, fmt.Errorf("create bucket: %w", err)
	}
	s.log.Info().Int64("vivarium_id", vivariumID).Bool("created", created).Msg("vivarium bucket ensured")
	return created, nil
}

// Record validates and writes a single measurement.
func (s *telemetryService) Record(ctx context.Context, in ports.MeasurementInput) error {
	if in.VivariumID <= 0 {
		return fmt.Errorf("%w: vivarium id must be positive", domain.ErrInvalidMeasurement)
	}
	name := strings.TrimSpace(in.Measurement)
	if name == "" {
		return fmt.Errorf("%w: measurement is required", domain.ErrInvalidMeasurement)
	}

	m := domain.Measurement{
		VivariumID: in.VivariumID,
		Name:       name,
		Value:      in.Value,
		Tags:       in.Tags,
		Time:       s.now().UTC(),
	}
	if err := s.store.Insert(ctx, m); err != nil {
		return fmt.Errorf("record measurement: %w", err)
	}

	s.log.Debug().
		Int64("vivarium_id", in.VivariumID).
		Str("measurement", name).
		Float64("value", in.Value).
		Msg("measurement recorded")
	return nil
}

func (s *telemetryService) Readings(ctx context.Context, q ports.ReadingsQuery) ([]domain.Reading, error) {
	if q.VivariumID <= 0 {
		return nil, fmt.Errorf("%w: vivarium id must be positive", domain.ErrInvalidMeasurement)
	}
	if strings.TrimSpace(q.Measurement) == "" {
		return nil, fmt.Errorf("%w: measurement is required", domain.ErrInvalidMeasurement)
	}
	hours := q.Hours
	if hours <= 0 {
		hours = domain.DefaultTelemetryRange
	}

	readings, err := s.store.Latest(ctx, q.VivariumID, q.Measurement, hours)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	if readings == nil {
		readings = []domain.Reading{}
	}
	return readings, nil
}

func (s *telemetryService) DeleteBucket(ctx context.Context, vivariumID int64) error {
	if vivariumID <= 0 {
		return fmt.Errorf("%w: vivarium id must be positive", domain.ErrInvalidMeasurement)
	}
	if err := s.store.DeleteBucket(ctx, vivariumID); err != nil {
		return fmt.Errorf("delete bucket: %w", err)
	}
	s.log.Info().Int64("vivarium_id", vivariumID).Msg("vivarium bucket deleted")
	return nil
}
