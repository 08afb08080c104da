//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aranyasourav/triggerhub/internal/api/handlers"
	"github.com/aranyasourav/triggerhub/internal/logging"
	"github.com/aranyasourav/triggerhub/internal/models"
	"github.com/aranyasourav/triggerhub/internal/triggers"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// memStore is a minimal in-memory triggers.Store for exercising the admin
// API's trigger CRUD routes end-to-end, without a MySQL instance.
type memStore struct {
	rows map[string]models.TriggerConfigRow
}

func newMemStore() *memStore { return &memStore{rows: map[string]models.TriggerConfigRow{}} }

func (m *memStore) CreateTrigger(ctx context.Context, row *models.TriggerConfigRow) error {
	m.rows[row.ID] = *row
	return nil
}
func (m *memStore) GetTriggerRow(ctx context.Context, id string) (*models.TriggerConfigRow, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, errNotFound
	}
	return &row, nil
}
func (m *memStore) UpdateTriggerStatus(ctx context.Context, kind models.TriggerKind, name string, status models.TriggerStatus) error {
	for id, row := range m.rows {
		if row.Kind == kind && row.Name == name {
			row.Status = status
			m.rows[id] = row
			return nil
		}
	}
	return errNotFound
}
func (m *memStore) UpdateTriggerFields(ctx context.Context, kind models.TriggerKind, name string, webhookURL *string, headers json.RawMessage, retry *models.RetryPolicy) error {
	for id, row := range m.rows {
		if row.Kind == kind && row.Name == name {
			if webhookURL != nil {
				row.WebhookURL = *webhookURL
			}
			m.rows[id] = row
			return nil
		}
	}
	return errNotFound
}
func (m *memStore) DeleteTrigger(ctx context.Context, kind models.TriggerKind, name string) error {
	for id, row := range m.rows {
		if row.Kind == kind && row.Name == name {
			delete(m.rows, id)
			return nil
		}
	}
	return errNotFound
}
func (m *memStore) ListTriggerRows(ctx context.Context, q models.ListTriggersQuery) ([]models.TriggerConfigRow, int64, error) {
	var out []models.TriggerConfigRow
	for _, row := range m.rows {
		out = append(out, row)
	}
	return out, int64(len(out)), nil
}
func (m *memStore) SetTriggerSchema(ctx context.Context, kind models.TriggerKind, name string, schema json.RawMessage) error {
	return nil
}
func (m *memStore) GetTriggerSchema(ctx context.Context, kind models.TriggerKind, name string) (json.RawMessage, error) {
	return nil, nil
}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "trigger not found" }

var errNotFound = notFoundErr{}

func TestTriggerFlow_CreateThenGet(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	svc := triggers.NewService(store)
	handler := handlers.NewTriggerHandler(logging.NewNoOpLogger(), svc)

	r := gin.New()
	r.POST("/api/v1/triggers", handler.CreateTrigger)
	r.GET("/api/v1/triggers/:id", handler.GetTrigger)

	body, _ := json.Marshal(models.CreateTriggerRequest{
		Name:       "orders_webhook",
		Kind:       models.TriggerKindEvent,
		WebhookURL: "https://example.com/hook",
		Retry:      models.RetryPolicy{NumRetries: 3, IntervalSeconds: 10, TimeoutSeconds: 60},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/triggers", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data models.TriggerResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.ID)

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/api/v1/triggers/"+created.Data.ID, nil)
	r.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusOK, w2.Code)
}
