// Package observability exposes read-only query access over both queues
// and the invocation log, for the admin API's GET endpoints.
package observability

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aranyasourav/triggerhub/internal/models"
	"github.com/aranyasourav/triggerhub/internal/triggers"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// EventStore is the subset of storage operations the event-log query
// surface needs.
type EventStore interface {
	GetEventLog(ctx context.Context, id string) (*models.EventLog, error)
	ListEventLogs(ctx context.Context, q models.ListEventsQuery) ([]models.EventLog, int64, error)
}

// ScheduledStore is the subset of storage operations the scheduled-event
// query surface needs.
type ScheduledStore interface {
	GetScheduledEvent(ctx context.Context, id string) (*models.ScheduledEvent, error)
	ListScheduledEvents(ctx context.Context, q models.ListScheduledEventsQuery) ([]models.ScheduledEvent, int64, error)
	MarkScheduledCancelled(ctx context.Context, id string) error
	InsertScheduledEvent(ctx context.Context, e *models.ScheduledEvent) error
}

// InvocationStore is the subset of storage operations invocation
// drill-down needs.
type InvocationStore interface {
	ListInvocations(ctx context.Context, queue models.QueueKind, rowID string) ([]models.InvocationLog, error)
}

// SchemaStore resolves the optional JSON Schema registered for a trigger,
// used to validate ad-hoc scheduled-event payloads before insertion.
type SchemaStore interface {
	GetTriggerSchema(ctx context.Context, kind models.TriggerKind, name string) (json.RawMessage, error)
}

// Service answers the admin API's read-only queries over event_log,
// hdb_scheduled_events, and invocation_logs, and performs the two
// ad-hoc ST mutations the API surface owns (insert, cancel). It does not
// drive delivery — that's the supervisor's job.
type Service struct {
	events      EventStore
	scheduled   ScheduledStore
	invocations InvocationStore
	schemas     SchemaStore
}

// NewService wires a Service.
func NewService(events EventStore, scheduled ScheduledStore, invocations InvocationStore, schemas SchemaStore) *Service {
	return &Service{events: events, scheduled: scheduled, invocations: invocations, schemas: schemas}
}

func paginate(total int64, page, limit int) models.Pagination {
	totalPages := 0
	if total > 0 && limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return models.Pagination{CurrentPage: page, PageSize: limit, TotalPages: totalPages, TotalRecords: total}
}

// ListEvents returns a page of event_log rows.
func (s *Service) ListEvents(ctx context.Context, q models.ListEventsQuery) (models.EventLogListResponse, error) {
	page, limit := normalizePage(q.Page), normalizeLimit(q.Limit)
	q.Page, q.Limit = page, limit

	rows, total, err := s.events.ListEventLogs(ctx, q)
	if err != nil {
		return models.EventLogListResponse{}, err
	}
	out := make([]models.EventLogResponse, 0, len(rows))
	for i := range rows {
		out = append(out, models.ToEventLogResponse(&rows[i]))
	}
	return models.EventLogListResponse{Events: out, Pagination: paginate(total, page, limit)}, nil
}

// GetEvent returns one event_log row, or nil if not found.
func (s *Service) GetEvent(ctx context.Context, id string) (*models.EventLogResponse, error) {
	e, err := s.events.GetEventLog(ctx, id)
	if err != nil || e == nil {
		return nil, err
	}
	resp := models.ToEventLogResponse(e)
	return &resp, nil
}

// EventInvocations returns the invocation history for one event_log row.
func (s *Service) EventInvocations(ctx context.Context, id string) ([]models.InvocationLog, error) {
	return s.invocations.ListInvocations(ctx, models.QueueKindEvent, id)
}

// ListScheduledEvents returns a page of hdb_scheduled_events rows.
func (s *Service) ListScheduledEvents(ctx context.Context, q models.ListScheduledEventsQuery) (models.ScheduledEventListResponse, error) {
	page, limit := normalizePage(q.Page), normalizeLimit(q.Limit)
	q.Page, q.Limit = page, limit

	rows, total, err := s.scheduled.ListScheduledEvents(ctx, q)
	if err != nil {
		return models.ScheduledEventListResponse{}, err
	}
	out := make([]models.ScheduledEventResponse, 0, len(rows))
	for i := range rows {
		out = append(out, models.ToScheduledEventResponse(&rows[i]))
	}
	return models.ScheduledEventListResponse{ScheduledEvents: out, Pagination: paginate(total, page, limit)}, nil
}

// GetScheduledEvent returns one hdb_scheduled_events row, or nil if not found.
func (s *Service) GetScheduledEvent(ctx context.Context, id string) (*models.ScheduledEventResponse, error) {
	e, err := s.scheduled.GetScheduledEvent(ctx, id)
	if err != nil || e == nil {
		return nil, err
	}
	resp := models.ToScheduledEventResponse(e)
	return &resp, nil
}

// ScheduledEventInvocations returns the invocation history for one
// hdb_scheduled_events row.
func (s *Service) ScheduledEventInvocations(ctx context.Context, id string) ([]models.InvocationLog, error) {
	return s.invocations.ListInvocations(ctx, models.QueueKindScheduled, id)
}

// CreateScheduledEvent inserts an ad-hoc ST row, validating
// AdditionalPayload against the trigger's registered JSON Schema, if any.
func (s *Service) CreateScheduledEvent(ctx context.Context, req models.CreateScheduledEventRequest) (*models.ScheduledEventResponse, error) {
	if err := s.validateAgainstSchema(ctx, req.Name, req.AdditionalPayload); err != nil {
		return nil, err
	}

	e := &models.ScheduledEvent{
		ID:                uuid.New().String(),
		Name:              req.Name,
		ScheduledTime:     req.ScheduledTime,
		AdditionalPayload: req.AdditionalPayload,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.scheduled.InsertScheduledEvent(ctx, e); err != nil {
		return nil, err
	}
	resp := models.ToScheduledEventResponse(e)
	return &resp, nil
}

// validateAgainstSchema checks payload against the JSON Schema registered
// for the named scheduled trigger, if one was uploaded via SetSchema. A
// trigger with no registered schema, or a request with no payload, skips
// validation entirely.
func (s *Service) validateAgainstSchema(ctx context.Context, triggerName string, payload json.RawMessage) error {
	if s.schemas == nil || len(payload) == 0 {
		return nil
	}
	schema, err := s.schemas.GetTriggerSchema(ctx, models.TriggerKindScheduled, triggerName)
	if err != nil {
		return err
	}
	if len(schema) == 0 {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(payload),
	)
	if err != nil {
		return triggers.NewValidationError("invalid schema or payload: %v", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return triggers.NewValidationError("additional_payload failed schema validation: %v", msgs)
	}
	return nil
}

// CancelScheduledEvent marks an ad-hoc (or cron-materialized) row
// cancelled, provided it hasn't already reached a terminal state.
func (s *Service) CancelScheduledEvent(ctx context.Context, id string) error {
	return s.scheduled.MarkScheduledCancelled(ctx, id)
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizeLimit(limit int) int {
	if limit < 1 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
