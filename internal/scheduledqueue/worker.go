package scheduledqueue

import (
	"context"
	"time"

	"github.com/aranyasourav/triggerhub/internal/delivery"
	"github.com/aranyasourav/triggerhub/internal/models"
	"github.com/aranyasourav/triggerhub/internal/registry"
	"go.uber.org/zap"
)

const batchSize = 100
const tickInterval = 60 * time.Second

// Store is the subset of storage operations the ST worker needs.
type Store interface {
	StatsStore
	LeaseScheduledEvents(ctx context.Context, now time.Time, limit int) ([]models.ScheduledEvent, error)
	delivery.ScheduledOutcomeRecorder
}

// Worker runs the ST loop: materialize, lease, dispatch sequentially, sleep.
// Dispatch within a tick is sequential; the shared permit pool still caps
// total in-flight HTTP calls across both queues.
type Worker struct {
	store        Store
	pipeline     *delivery.Pipeline
	materializer *Materializer
	registry     registry.Provider
	clock        Clock
	logger       *zap.Logger
}

// New constructs an ST worker.
func New(store Store, pipeline *delivery.Pipeline, reg registry.Provider, c Clock, logger *zap.Logger) *Worker {
	return &Worker{
		store:        store,
		pipeline:     pipeline,
		materializer: NewMaterializer(store, c, logger),
		registry:     reg,
		clock:        c,
		logger:       logger,
	}
}

// Run loops until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	snap, err := w.registry.Snapshot(ctx)
	if err != nil {
		w.logger.Error("load trigger registry snapshot", zap.Error(err))
		return
	}

	w.materializer.Run(ctx, snap.CronTriggers())

	batch, err := w.store.LeaseScheduledEvents(ctx, w.clock.Now(), batchSize)
	if err != nil {
		w.logger.Error("lease scheduled events", zap.Error(err))
		return
	}

	for i := range batch {
		e := &batch[i]
		cfg, ok := snap.ScheduledTrigger(e.Name)
		if !ok {
			w.logger.Error("scheduled trigger missing from registry, skipping",
				zap.String("scheduled_event_id", e.ID), zap.String("name", e.Name))
			continue
		}
		if err := w.pipeline.DeliverScheduled(ctx, e, cfg, w.store); err != nil {
			w.logger.Error("deliver scheduled event", zap.String("scheduled_event_id", e.ID), zap.Error(err))
		}
	}
}
