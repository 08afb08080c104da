package api

import (
	"context"
)

// queueCounter is the subset of storage the metrics adapter reads from.
type queueCounter interface {
	EventQueueCounts(ctx context.Context) (delivered, errored, pending int64, err error)
	ScheduledQueueCounts(ctx context.Context) (delivered, errored, dead, pending int64, err error)
}

// inFlightGauge is the subset of delivery.Permits the metrics adapter reads from.
type inFlightGauge interface {
	InFlight() int64
}

// metricsSource adapts the storage layer and the delivery permit pool to
// handlers.MetricsSource.
type metricsSource struct {
	store   queueCounter
	permits inFlightGauge
}

func (m *metricsSource) EventQueueCounts(ctx context.Context) (int64, int64, int64, error) {
	return m.store.EventQueueCounts(ctx)
}

func (m *metricsSource) ScheduledQueueCounts(ctx context.Context) (int64, int64, int64, int64, error) {
	return m.store.ScheduledQueueCounts(ctx)
}

// InFlight reports 0 when no permit pool was wired: the admin process
// doesn't share memory with the engine process, so this gauge is only
// meaningful when both run in the same binary.
func (m *metricsSource) InFlight() int64 {
	if m.permits == nil {
		return 0
	}
	return m.permits.InFlight()
}
