package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eparriel/pfe-backend/internal/core/domain"
	"github.com/eparriel/pfe-backend/internal/core/ports"
)

// MeasurementQueue is the interface the handler uses to enqueue measurements.
type MeasurementQueue interface {
	Enqueue(ctx context.Context, in ports.MeasurementInput) error
}

// TelemetryHandler handles vivarium bucket management and measurement ingestion.
type TelemetryHandler struct {
	service ports.TelemetryService
	queue   MeasurementQueue
}

// TelemetryDisabled answers the vivarium routes when no time-series store is configured.
func TelemetryDisabled(echo.Context) error {
	return domain.ErrTelemetryDisabled
}

func NewTelemetryHandler(service ports.TelemetryService, queue MeasurementQueue) *TelemetryHandler {
	return &TelemetryHandler{service: service, queue: queue}
}

// CreateBucket handles POST /vivariums/:id/bucket.
//
// @Summary      Create the measurement bucket of a vivarium
// @Tags         telemetry
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Vivarium ID"
// @Success      201  {object}  bucketResponse
// @Success      200  {object}  bucketResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /vivariums/{id}/bucket [post]
func (h *TelemetryHandler) CreateBucket(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	created, err := h.service.CreateBucket(c.Request().Context(), id)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, bucketResponse{Bucket: domain.BucketName(id), Created: created})
}

// DeleteBucket handles DELETE /vivariums/:id/bucket.
//
// @Summary      Delete the measurement bucket of a vivarium
// @Tags         telemetry
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Vivarium ID"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /vivariums/{id}/bucket [delete]
func (h *TelemetryHandler) DeleteBucket(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteBucket(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Bucket deleted successfully"})
}

// Record handles POST /vivariums/:id/measurements. The measurement is
// written asynchronously; 202 means it was queued.
//
// @Summary      Record a measurement
// @Tags         telemetry
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                 true  "Vivarium ID"
// @Param        body  body      measurementRequest  true  "Measurement"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /vivariums/{id}/measurements [post]
func (h *TelemetryHandler) Record(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req measurementRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	in := ports.MeasurementInput{
		VivariumID:  id,
		Measurement: req.Measurement,
		Value:       *req.Value,
		Tags:        req.Tags,
	}
	if err := h.queue.Enqueue(c.Request().Context(), in); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "measurement queue unavailable")
	}

	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "measurement accepted"})
}

// Readings handles GET /vivariums/:id/measurements.
//
// @Summary      Latest readings of a measurement
// @Tags         telemetry
// @Produce      json
// @Security     BearerAuth
// @Param        id           path      int     true   "Vivarium ID"
// @Param        measurement  query     string  true   "Measurement name"
// @Param        timeRange    query     int     false  "Look-back window in hours (default 24)"
// @Success      200          {array}   domain.Reading
// @Failure      400          {object}  errorResponse
// @Failure      401          {object}  errorResponse
// @Router       /vivariums/{id}/measurements [get]
func (h *TelemetryHandler) Readings(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var q readingsQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	readings, err := h.service.Readings(c.Request().Context(), ports.ReadingsQuery{
		VivariumID:  id,
		Measurement: q.Measurement,
		Hours:       q.Hours,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, readings)
}
