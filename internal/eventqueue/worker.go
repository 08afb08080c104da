package eventqueue

import (
	"context"
	"time"

	"github.com/aranyasourav/triggerhub/internal/delivery"
	"github.com/aranyasourav/triggerhub/internal/models"
	"github.com/aranyasourav/triggerhub/internal/registry"
	"go.uber.org/zap"
)

const batchSize = 100
const fullBatchWarnThreshold = 3

// Store is the subset of storage operations the ET worker needs.
type Store interface {
	LeaseEventLogs(ctx context.Context, now time.Time, limit int) ([]models.EventLog, error)
	delivery.EventOutcomeRecorder
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// Worker drains the ET queue with a double-buffered fetch-then-dispatch
// loop: while the current batch dispatches, the next lease is already in
// flight.
type Worker struct {
	store    Store
	pipeline *delivery.Pipeline
	registry registry.Provider
	clock    Clock
	interval time.Duration
	logger   *zap.Logger

	fullStreak int
	warned     bool
}

// New constructs an ET worker.
func New(store Store, pipeline *delivery.Pipeline, reg registry.Provider, c Clock, interval time.Duration, logger *zap.Logger) *Worker {
	return &Worker{store: store, pipeline: pipeline, registry: reg, clock: c, interval: interval, logger: logger}
}

// Run loops until ctx is cancelled. A fetched batch is dispatched while the
// next lease is issued concurrently, so fetch latency never stalls dispatch.
func (w *Worker) Run(ctx context.Context) {
	nextBatch := w.fetch(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		batch := nextBatch
		fetchDone := make(chan []models.EventLog, 1)
		go func() {
			if len(batch) == batchSize {
				// no idle wait: queue was saturated, fetch again immediately
			} else {
				w.sleep(ctx)
			}
			fetchDone <- w.fetch(ctx)
		}()

		w.dispatchBatch(ctx, batch)
		w.trackSaturation(len(batch))

		select {
		case nextBatch = <-fetchDone:
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-time.After(w.interval):
	case <-ctx.Done():
	}
}

func (w *Worker) fetch(ctx context.Context) []models.EventLog {
	batch, err := w.store.LeaseEventLogs(ctx, w.clock.Now(), batchSize)
	if err != nil {
		w.logger.Error("lease event logs", zap.Error(err))
		return nil
	}
	return batch
}

func (w *Worker) dispatchBatch(ctx context.Context, batch []models.EventLog) {
	if len(batch) == 0 {
		return
	}

	snap, err := w.registry.Snapshot(ctx)
	if err != nil {
		w.logger.Error("load trigger registry snapshot", zap.Error(err))
		return
	}

	for i := range batch {
		e := &batch[i]
		cfg, ok := snap.EventTrigger(e.TriggerName)
		if !ok {
			w.logger.Error("event trigger missing from registry, skipping",
				zap.String("event_id", e.ID), zap.String("trigger_name", e.TriggerName))
			continue
		}
		if err := w.pipeline.DeliverEvent(ctx, e, cfg, w.store); err != nil {
			w.logger.Error("deliver event", zap.String("event_id", e.ID), zap.Error(err))
		}
	}
}

// trackSaturation implements full-batch-streak warning/recovery logging:
// three consecutive full batches trigger one warning; the next non-full
// batch logs recovery.
func (w *Worker) trackSaturation(batchLen int) {
	if batchLen == batchSize {
		w.fullStreak++
		if w.fullStreak == fullBatchWarnThreshold && !w.warned {
			w.warned = true
			w.logger.Warn("event queue has returned full batches repeatedly, consider raising concurrency",
				zap.Int("streak", w.fullStreak))
		}
		return
	}

	if w.warned {
		w.logger.Info("event queue batch size back to normal, no longer saturated")
	}
	w.fullStreak = 0
	w.warned = false
}
