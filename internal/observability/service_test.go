package observability

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aranyasourav/triggerhub/internal/models"
	"github.com/aranyasourav/triggerhub/internal/triggers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventStore struct {
	rows map[string]models.EventLog
}

func (f *fakeEventStore) GetEventLog(ctx context.Context, id string) (*models.EventLog, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (f *fakeEventStore) ListEventLogs(ctx context.Context, q models.ListEventsQuery) ([]models.EventLog, int64, error) {
	var out []models.EventLog
	for _, r := range f.rows {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

type fakeScheduledStore struct {
	mu        sync.Mutex
	rows      map[string]models.ScheduledEvent
	cancelled map[string]bool
}

func newFakeScheduledStore() *fakeScheduledStore {
	return &fakeScheduledStore{rows: map[string]models.ScheduledEvent{}, cancelled: map[string]bool{}}
}

func (f *fakeScheduledStore) GetScheduledEvent(ctx context.Context, id string) (*models.ScheduledEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (f *fakeScheduledStore) ListScheduledEvents(ctx context.Context, q models.ListScheduledEventsQuery) ([]models.ScheduledEvent, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ScheduledEvent
	for _, r := range f.rows {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeScheduledStore) MarkScheduledCancelled(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return errors.New("not found")
	}
	f.cancelled[id] = true
	return nil
}

func (f *fakeScheduledStore) InsertScheduledEvent(ctx context.Context, e *models.ScheduledEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[e.ID] = *e
	return nil
}

type fakeInvocationStore struct {
	logs []models.InvocationLog
}

func (f *fakeInvocationStore) ListInvocations(ctx context.Context, queue models.QueueKind, rowID string) ([]models.InvocationLog, error) {
	var out []models.InvocationLog
	for _, l := range f.logs {
		if l.Queue == queue && l.RowID == rowID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeSchemaStore struct {
	schemas map[string]json.RawMessage
	err     error
}

func (f *fakeSchemaStore) GetTriggerSchema(ctx context.Context, kind models.TriggerKind, name string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.schemas == nil {
		return nil, nil
	}
	return f.schemas[name], nil
}

func TestListEvents_NormalizesPageAndLimit(t *testing.T) {
	events := &fakeEventStore{rows: map[string]models.EventLog{
		"e1": {ID: "e1"}, "e2": {ID: "e2"},
	}}
	svc := NewService(events, newFakeScheduledStore(), &fakeInvocationStore{}, &fakeSchemaStore{})

	resp, err := svc.ListEvents(context.Background(), models.ListEventsQuery{Page: 0, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Pagination.CurrentPage)
	assert.Equal(t, 20, resp.Pagination.PageSize)
	assert.Equal(t, int64(2), resp.Pagination.TotalRecords)
}

func TestGetEvent_NotFoundReturnsNilWithoutError(t *testing.T) {
	events := &fakeEventStore{rows: map[string]models.EventLog{}}
	svc := NewService(events, newFakeScheduledStore(), &fakeInvocationStore{}, &fakeSchemaStore{})

	resp, err := svc.GetEvent(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestCreateScheduledEvent_InsertsAdHocRow(t *testing.T) {
	scheduled := newFakeScheduledStore()
	svc := NewService(&fakeEventStore{}, scheduled, &fakeInvocationStore{}, &fakeSchemaStore{})

	resp, err := svc.CreateScheduledEvent(context.Background(), models.CreateScheduledEventRequest{
		Name:          "one_off_report",
		ScheduledTime: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "one_off_report", resp.Name)
	assert.Contains(t, scheduled.rows, resp.ID)
}

func TestCancelScheduledEvent_DelegatesToStore(t *testing.T) {
	scheduled := newFakeScheduledStore()
	scheduled.rows["sch-1"] = models.ScheduledEvent{ID: "sch-1", Name: "daily_digest"}
	svc := NewService(&fakeEventStore{}, scheduled, &fakeInvocationStore{}, &fakeSchemaStore{})

	require.NoError(t, svc.CancelScheduledEvent(context.Background(), "sch-1"))
	assert.True(t, scheduled.cancelled["sch-1"])
}

func TestCancelScheduledEvent_PropagatesNotFound(t *testing.T) {
	scheduled := newFakeScheduledStore()
	svc := NewService(&fakeEventStore{}, scheduled, &fakeInvocationStore{}, &fakeSchemaStore{})

	err := svc.CancelScheduledEvent(context.Background(), "missing")
	assert.Error(t, err)
}

func TestEventInvocations_FiltersByQueueAndRowID(t *testing.T) {
	invocations := &fakeInvocationStore{logs: []models.InvocationLog{
		{ID: "i1", Queue: models.QueueKindEvent, RowID: "e1"},
		{ID: "i2", Queue: models.QueueKindScheduled, RowID: "e1"},
		{ID: "i3", Queue: models.QueueKindEvent, RowID: "e2"},
	}}
	svc := NewService(&fakeEventStore{rows: map[string]models.EventLog{}}, newFakeScheduledStore(), invocations, &fakeSchemaStore{})

	logs, err := svc.EventInvocations(context.Background(), "e1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "i1", logs[0].ID)
}

func TestListScheduledEvents_ClampsLimitAbove100(t *testing.T) {
	scheduled := newFakeScheduledStore()
	scheduled.rows["s1"] = models.ScheduledEvent{ID: "s1"}
	svc := NewService(&fakeEventStore{}, scheduled, &fakeInvocationStore{}, &fakeSchemaStore{})

	resp, err := svc.ListScheduledEvents(context.Background(), models.ListScheduledEventsQuery{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.Pagination.PageSize)
}

func TestCreateScheduledEvent_RejectsPayloadFailingRegisteredSchema(t *testing.T) {
	scheduled := newFakeScheduledStore()
	schemas := &fakeSchemaStore{schemas: map[string]json.RawMessage{
		"daily_digest": json.RawMessage(`{"type": "object", "required": ["region"], "properties": {"region": {"type": "string"}}}`),
	}}
	svc := NewService(&fakeEventStore{}, scheduled, &fakeInvocationStore{}, schemas)

	_, err := svc.CreateScheduledEvent(context.Background(), models.CreateScheduledEventRequest{
		Name:              "daily_digest",
		ScheduledTime:     time.Now().Add(time.Hour),
		AdditionalPayload: json.RawMessage(`{"foo": "bar"}`),
	})

	require.Error(t, err)
	var validationErr triggers.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Empty(t, scheduled.rows)
}

func TestCreateScheduledEvent_AcceptsPayloadSatisfyingRegisteredSchema(t *testing.T) {
	scheduled := newFakeScheduledStore()
	schemas := &fakeSchemaStore{schemas: map[string]json.RawMessage{
		"daily_digest": json.RawMessage(`{"type": "object", "required": ["region"], "properties": {"region": {"type": "string"}}}`),
	}}
	svc := NewService(&fakeEventStore{}, scheduled, &fakeInvocationStore{}, schemas)

	resp, err := svc.CreateScheduledEvent(context.Background(), models.CreateScheduledEventRequest{
		Name:              "daily_digest",
		ScheduledTime:     time.Now().Add(time.Hour),
		AdditionalPayload: json.RawMessage(`{"region": "us-east"}`),
	})

	require.NoError(t, err)
	assert.Contains(t, scheduled.rows, resp.ID)
}

func TestCreateScheduledEvent_SkipsValidationWhenNoSchemaRegistered(t *testing.T) {
	scheduled := newFakeScheduledStore()
	svc := NewService(&fakeEventStore{}, scheduled, &fakeInvocationStore{}, &fakeSchemaStore{})

	resp, err := svc.CreateScheduledEvent(context.Background(), models.CreateScheduledEventRequest{
		Name:              "one_off_report",
		ScheduledTime:     time.Now().Add(time.Hour),
		AdditionalPayload: json.RawMessage(`{"anything": true}`),
	})

	require.NoError(t, err)
	assert.Contains(t, scheduled.rows, resp.ID)
}

func TestCreateScheduledEvent_SkipsValidationWhenPayloadEmpty(t *testing.T) {
	scheduled := newFakeScheduledStore()
	schemas := &fakeSchemaStore{schemas: map[string]json.RawMessage{
		"daily_digest": json.RawMessage(`{"type": "object", "required": ["region"]}`),
	}}
	svc := NewService(&fakeEventStore{}, scheduled, &fakeInvocationStore{}, schemas)

	resp, err := svc.CreateScheduledEvent(context.Background(), models.CreateScheduledEventRequest{
		Name:          "daily_digest",
		ScheduledTime: time.Now().Add(time.Hour),
	})

	require.NoError(t, err)
	assert.Contains(t, scheduled.rows, resp.ID)
}
