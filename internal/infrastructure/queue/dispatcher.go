package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/eparriel/pfe-backend/internal/api/metrics"
	"github.com/eparriel/pfe-backend/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ErrStopped is returned by Enqueue once the dispatcher has been stopped.
var ErrStopped = errors.New("dispatcher stopped")

// Dispatcher routes measurements to a fixed set of workers keyed by vivarium
// id, so measurements of one vivarium are written in arrival order.
type Dispatcher struct {
	workers []chan ports.MeasurementInput
	service ports.TelemetryService
	log     zerolog.Logger

	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.TelemetryService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.MeasurementInput, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.MeasurementInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their channel and exit
// after Stop, or return immediately when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Stop closes the worker channels and waits for queued measurements to be written.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Enqueue hands a measurement to the worker responsible for its vivarium.
// It blocks while that worker's buffer is full, until ctx is done.
func (d *Dispatcher) Enqueue(ctx context.Context, in ports.MeasurementInput) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}

	idx := d.shardIndex(in.VivariumID)
	select {
	case d.workers[idx] <- in:
		metrics.TelemetryQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a vivarium id deterministically to a worker index.
func (d *Dispatcher) shardIndex(vivariumID int64) int {
	n := int64(len(d.workers))
	return int(((vivariumID % n) + n) % n)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.MeasurementInput) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-ch:
			if !ok {
				return
			}
			metrics.TelemetryQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := d.service.Record(ctx, in); err != nil {
				metrics.TelemetryWritesTotal.WithLabelValues("error").Inc()
				d.log.Error().Err(err).
					Int64("vivarium_id", in.VivariumID).
					Str("measurement", in.Measurement).
					Int("worker_id", id).
					Msg("measurement write failed")
				continue
			}
			metrics.TelemetryWritesTotal.WithLabelValues("ok").Inc()
		}
	}
}
