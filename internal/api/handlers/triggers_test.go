package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aranyasourav/triggerhub/internal/api/response"
	"github.com/aranyasourav/triggerhub/internal/logging"
	"github.com/aranyasourav/triggerhub/internal/models"
	"github.com/aranyasourav/triggerhub/internal/storage"
	"github.com/aranyasourav/triggerhub/internal/triggers"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTriggerStore struct {
	mu   sync.Mutex
	rows map[string]models.TriggerConfigRow
	sch  map[string]json.RawMessage
}

func newMemTriggerStore() *memTriggerStore {
	return &memTriggerStore{rows: map[string]models.TriggerConfigRow{}, sch: map[string]json.RawMessage{}}
}

func (m *memTriggerStore) CreateTrigger(ctx context.Context, row *models.TriggerConfigRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[row.ID] = *row
	return nil
}

func (m *memTriggerStore) GetTriggerRow(ctx context.Context, id string) (*models.TriggerConfigRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, storage.ErrTriggerNotFound
	}
	return &row, nil
}

func (m *memTriggerStore) UpdateTriggerStatus(ctx context.Context, kind models.TriggerKind, name string, status models.TriggerStatus) error {
	return storage.ErrTriggerNotFound
}

func (m *memTriggerStore) UpdateTriggerFields(ctx context.Context, kind models.TriggerKind, name string, webhookURL *string, headers json.RawMessage, retry *models.RetryPolicy) error {
	return storage.ErrTriggerNotFound
}

func (m *memTriggerStore) DeleteTrigger(ctx context.Context, kind models.TriggerKind, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, row := range m.rows {
		if row.Kind == kind && row.Name == name {
			delete(m.rows, id)
			return nil
		}
	}
	return storage.ErrTriggerNotFound
}

func (m *memTriggerStore) ListTriggerRows(ctx context.Context, q models.ListTriggersQuery) ([]models.TriggerConfigRow, int64, error) {
	return nil, 0, nil
}

func (m *memTriggerStore) SetTriggerSchema(ctx context.Context, kind models.TriggerKind, name string, schema json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sch[string(kind)+"/"+name] = schema
	return nil
}

func (m *memTriggerStore) GetTriggerSchema(ctx context.Context, kind models.TriggerKind, name string) (json.RawMessage, error) {
	return nil, nil
}

func newTriggerTestRouter(store *memTriggerStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTriggerHandler(logging.NewNoOpLogger(), triggers.NewService(store))
	r := gin.New()
	g := r.Group("/api/v1/triggers")
	g.POST("", h.CreateTrigger)
	g.GET("", h.ListTriggers)
	g.GET("/:id", h.GetTrigger)
	g.PATCH("/:id", h.UpdateTrigger)
	g.DELETE("/:id", h.DeleteTrigger)
	g.POST("/:id/schema", h.SetSchema)
	return r
}

func TestTriggerHandler_CreateTrigger_Success(t *testing.T) {
	r := newTriggerTestRouter(newMemTriggerStore())

	body, _ := json.Marshal(models.CreateTriggerRequest{
		Name:       "orders_webhook",
		Kind:       models.TriggerKindEvent,
		WebhookURL: "https://example.com/hook",
		Retry:      models.RetryPolicy{NumRetries: 3, IntervalSeconds: 10, TimeoutSeconds: 60},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/triggers", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp response.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
}

func TestTriggerHandler_CreateTrigger_InvalidBody(t *testing.T) {
	r := newTriggerTestRouter(newMemTriggerStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/triggers", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTriggerHandler_GetTrigger_NotFound(t *testing.T) {
	r := newTriggerTestRouter(newMemTriggerStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/triggers/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTriggerHandler_CreateThenGet(t *testing.T) {
	r := newTriggerTestRouter(newMemTriggerStore())

	body, _ := json.Marshal(models.CreateTriggerRequest{
		Name:       "orders_webhook",
		Kind:       models.TriggerKindEvent,
		WebhookURL: "https://example.com/hook",
		Retry:      models.RetryPolicy{NumRetries: 3, IntervalSeconds: 10, TimeoutSeconds: 60},
	})
	createReq := httptest.NewRequest(http.MethodPost, "/api/v1/triggers", bytes.NewReader(body))
	createReq.Header.Set("Content-Type", "application/json")
	createW := httptest.NewRecorder()
	r.ServeHTTP(createW, createReq)
	require.Equal(t, http.StatusCreated, createW.Code)

	var created response.SuccessResponse
	require.NoError(t, json.Unmarshal(createW.Body.Bytes(), &created))
	dataBytes, _ := json.Marshal(created.Data)
	var trigger models.TriggerResponse
	require.NoError(t, json.Unmarshal(dataBytes, &trigger))

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/triggers/"+trigger.ID, nil)
	getW := httptest.NewRecorder()
	r.ServeHTTP(getW, getReq)
	assert.Equal(t, http.StatusOK, getW.Code)
}

func TestTriggerHandler_SetSchema_RejectsInvalidJSON(t *testing.T) {
	r := newTriggerTestRouter(newMemTriggerStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/triggers/any-id/schema", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
