package triggers

import (
	"context"
	"encoding/json"

	"github.com/aranyasourav/triggerhub/internal/models"
)

// Store defines the storage methods required by the trigger service.
type Store interface {
	CreateTrigger(ctx context.Context, row *models.TriggerConfigRow) error
	GetTriggerRow(ctx context.Context, id string) (*models.TriggerConfigRow, error)
	UpdateTriggerStatus(ctx context.Context, kind models.TriggerKind, name string, status models.TriggerStatus) error
	UpdateTriggerFields(ctx context.Context, kind models.TriggerKind, name string, webhookURL *string, headers json.RawMessage, retry *models.RetryPolicy) error
	DeleteTrigger(ctx context.Context, kind models.TriggerKind, name string) error
	ListTriggerRows(ctx context.Context, q models.ListTriggersQuery) ([]models.TriggerConfigRow, int64, error)
	SetTriggerSchema(ctx context.Context, kind models.TriggerKind, name string, schema json.RawMessage) error
	GetTriggerSchema(ctx context.Context, kind models.TriggerKind, name string) (json.RawMessage, error)
}
