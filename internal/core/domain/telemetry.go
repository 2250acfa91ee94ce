package domain

import (
	"fmt"
	"time"
)

// DefaultTelemetryRange is the look-back window, in hours, of a readings query.
const DefaultTelemetryRange = 24

// Measurement is a single sensor value reported for a vivarium.
type Measurement struct {
	VivariumID int64
	Name       string
	Value      float64
	Tags       map[string]string
	Time       time.Time
}

// Reading is a stored measurement returned by a telemetry query.
type Reading struct {
	Time        time.Time         `json:"time"`
	Measurement string            `json:"measurement"`
	Value       float64           `json:"value"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// BucketName is the time-series bucket holding a vivarium's measurements.
func BucketName(vivariumID int64) string {
	return fmt.Sprintf("vivarium_%d", vivariumID)
}
