// Package registry provides the read-only Trigger Registry: a snapshot of
// configured ET and ST triggers, re-queried once per processing cycle so
// configuration edits become visible to the engine without a restart.
package registry

import (
	"context"

	"github.com/aranyasourav/triggerhub/internal/models"
)

// Snapshot is an immutable view of the currently configured triggers,
// keyed by trigger name. It is never mutated after construction; a new
// Snapshot replaces it wholesale each tick.
type Snapshot struct {
	events     map[string]models.EventTriggerConfig
	scheduled  map[string]models.ScheduledTriggerConfig
}

// NewSnapshot builds a Snapshot from resolved trigger configs. Triggers
// with TriggerStatusInactive are still indexed (the registry is a
// passthrough of what's configured). Only CronTriggers filters to active
// triggers; EventTrigger and ScheduledTrigger resolve a trigger whatever
// its status, and the queue lease queries do not look at trigger status.
func NewSnapshot(events []models.EventTriggerConfig, scheduled []models.ScheduledTriggerConfig) Snapshot {
	s := Snapshot{
		events:    make(map[string]models.EventTriggerConfig, len(events)),
		scheduled: make(map[string]models.ScheduledTriggerConfig, len(scheduled)),
	}
	for _, e := range events {
		s.events[e.Name] = e
	}
	for _, st := range scheduled {
		s.scheduled[st.Name] = st
	}
	return s
}

// EventTrigger resolves an ET trigger name to its configuration. ok is
// false when the trigger is missing from the registry — an internal-error
// condition the delivery pipeline must log and skip.
func (s Snapshot) EventTrigger(name string) (models.EventTriggerConfig, bool) {
	cfg, ok := s.events[name]
	return cfg, ok
}

// ScheduledTrigger resolves an ST trigger name to its configuration.
func (s Snapshot) ScheduledTrigger(name string) (models.ScheduledTriggerConfig, bool) {
	cfg, ok := s.scheduled[name]
	return cfg, ok
}

// CronTriggers returns every ST trigger configured with a cron schedule;
// used by the Scheduled Materializer.
func (s Snapshot) CronTriggers() []models.ScheduledTriggerConfig {
	out := make([]models.ScheduledTriggerConfig, 0, len(s.scheduled))
	for _, st := range s.scheduled {
		if st.Schedule == models.ScheduleKindCron && st.Status == models.TriggerStatusActive {
			out = append(out, st)
		}
	}
	return out
}

// Provider resolves the current snapshot. The engine calls Snapshot once
// per tick.
type Provider interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(ctx context.Context) (Snapshot, error)

func (f ProviderFunc) Snapshot(ctx context.Context) (Snapshot, error) { return f(ctx) }
