package scheduledqueue

import (
	"context"
	"time"

	"github.com/aranyasourav/triggerhub/internal/models"
	"github.com/aranyasourav/triggerhub/internal/triggers"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const materializeHorizon = 100

// StatsStore is the subset of storage the Materializer needs.
type StatsStore interface {
	ScheduledEventStats(ctx context.Context, names []string) (map[string]models.ScheduledEventStats, error)
	InsertScheduledEvent(ctx context.Context, e *models.ScheduledEvent) error
}

// Materializer tops up the ST queue for every cron trigger so at least
// materializeHorizon non-terminal occurrences exist ahead of time.
type Materializer struct {
	store  StatsStore
	clock  Clock
	logger *zap.Logger
}

// NewMaterializer wires a Materializer.
func NewMaterializer(store StatsStore, c Clock, logger *zap.Logger) *Materializer {
	return &Materializer{store: store, clock: c, logger: logger}
}

// Run executes one materialization pass over the given cron triggers.
func (m *Materializer) Run(ctx context.Context, cronTriggers []models.ScheduledTriggerConfig) {
	if len(cronTriggers) == 0 {
		return
	}

	names := make([]string, len(cronTriggers))
	for i, t := range cronTriggers {
		names[i] = t.Name
	}

	stats, err := m.store.ScheduledEventStats(ctx, names)
	if err != nil {
		m.logger.Error("load scheduled event stats", zap.Error(err))
		return
	}

	for _, cfg := range cronTriggers {
		s := stats[cfg.Name]
		if s.UpcomingEventsCount >= materializeHorizon {
			continue
		}

		from := m.clock.Now()
		if s.MaxScheduledTime != nil {
			from = *s.MaxScheduledTime
		}

		times, err := triggers.GenerateScheduleTimes(cfg.CronExpr, from, materializeHorizon)
		if err != nil {
			m.logger.Error("generate schedule times", zap.String("trigger", cfg.Name), zap.Error(err))
			continue
		}

		for _, t := range times {
			row := &models.ScheduledEvent{
				ID:            uuid.New().String(),
				Name:          cfg.Name,
				ScheduledTime: t,
				CreatedAt:     m.clock.Now(),
			}
			if err := m.store.InsertScheduledEvent(ctx, row); err != nil {
				m.logger.Error("insert materialized scheduled event",
					zap.String("trigger", cfg.Name), zap.Time("scheduled_time", t), zap.Error(err))
			}
		}
	}
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}
