package triggers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aranyasourav/triggerhub/internal/models"
	"github.com/google/uuid"
)

// Service encapsulates trigger-authoring business logic: the admin API's
// surface over the trigger config tables the Trigger Registry reads from.
// It does not itself drive delivery — it only validates and persists
// configuration.
type Service struct {
	store Store
}

// NewService creates a trigger service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateTrigger validates a request and persists a trigger config row.
func (s *Service) CreateTrigger(ctx context.Context, req models.CreateTriggerRequest) (*models.TriggerResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, NewValidationError("name is required")
	}

	row := models.TriggerConfigRow{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Kind:       req.Kind,
		Status:     models.TriggerStatusActive,
		WebhookURL: req.WebhookURL,
	}

	headers, err := json.Marshal(req.Headers)
	if err != nil {
		return nil, err
	}
	row.Headers = headers

	retry, err := json.Marshal(req.Retry)
	if err != nil {
		return nil, err
	}
	row.Retry = retry

	switch req.Kind {
	case models.TriggerKindEvent:
		if req.Schedule != nil {
			return nil, NewValidationError("event triggers do not take a schedule")
		}
	case models.TriggerKindScheduled:
		if req.Schedule == nil {
			return nil, NewValidationError("schedule is required for scheduled triggers")
		}
		if req.Schedule.Kind == models.ScheduleKindCron {
			if err := ValidateCronExpr(req.Schedule.CronExpr); err != nil {
				return nil, NewValidationError("%v", err)
			}
		}
		schedule, err := json.Marshal(req.Schedule)
		if err != nil {
			return nil, err
		}
		row.Schedule = schedule
	default:
		return nil, NewValidationError("unsupported trigger kind: %s", req.Kind)
	}

	if err := s.store.CreateTrigger(ctx, &row); err != nil {
		return nil, err
	}

	resp := rowToResponse(row)
	return &resp, nil
}

// ListTriggers returns trigger config rows matching the query, with pagination metadata.
func (s *Service) ListTriggers(ctx context.Context, query models.ListTriggersQuery) (models.TriggerListResponse, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 20
	}

	rows, total, err := s.store.ListTriggerRows(ctx, query)
	if err != nil {
		return models.TriggerListResponse{}, err
	}

	responses := make([]models.TriggerResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, rowToResponse(row))
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(query.Limit) - 1) / int64(query.Limit))
	}

	return models.TriggerListResponse{
		Triggers: responses,
		Pagination: models.Pagination{
			CurrentPage:  query.Page,
			PageSize:     query.Limit,
			TotalPages:   totalPages,
			TotalRecords: total,
		},
	}, nil
}

// GetTrigger looks a trigger config row up by id.
func (s *Service) GetTrigger(ctx context.Context, id string) (*models.TriggerResponse, error) {
	row, err := s.store.GetTriggerRow(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := rowToResponse(*row)
	return &resp, nil
}

// UpdateTrigger patches the mutable fields of a trigger config row,
// identified by id; only the fields present in req are touched.
func (s *Service) UpdateTrigger(ctx context.Context, id string, req models.UpdateTriggerRequest) (*models.TriggerResponse, error) {
	row, err := s.store.GetTriggerRow(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		if err := s.store.UpdateTriggerStatus(ctx, row.Kind, row.Name, *req.Status); err != nil {
			return nil, err
		}
	}

	var headers json.RawMessage
	if req.Headers != nil {
		headers, err = json.Marshal(req.Headers)
		if err != nil {
			return nil, err
		}
	}
	if req.WebhookURL != nil || headers != nil || req.Retry != nil {
		if err := s.store.UpdateTriggerFields(ctx, row.Kind, row.Name, req.WebhookURL, headers, req.Retry); err != nil {
			return nil, err
		}
	}

	return s.GetTrigger(ctx, id)
}

// SetSchema stores the optional JSON Schema used to validate ad-hoc
// scheduled-event payloads for this trigger. No other payload is checked
// against it.
func (s *Service) SetSchema(ctx context.Context, id string, schema json.RawMessage) error {
	row, err := s.store.GetTriggerRow(ctx, id)
	if err != nil {
		return err
	}
	return s.store.SetTriggerSchema(ctx, row.Kind, row.Name, schema)
}

// SetStatus flips a trigger's active/inactive flag.
func (s *Service) SetStatus(ctx context.Context, kind models.TriggerKind, name string, status models.TriggerStatus) error {
	return s.store.UpdateTriggerStatus(ctx, kind, name, status)
}

// DeleteTrigger removes a trigger config row.
func (s *Service) DeleteTrigger(ctx context.Context, kind models.TriggerKind, name string) error {
	return s.store.DeleteTrigger(ctx, kind, name)
}

func rowToResponse(row models.TriggerConfigRow) models.TriggerResponse {
	resp := models.TriggerResponse{
		ID:         row.ID,
		Name:       row.Name,
		Kind:       row.Kind,
		Status:     row.Status,
		WebhookURL: row.WebhookURL,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if len(row.Headers) > 0 {
		_ = json.Unmarshal(row.Headers, &resp.Headers)
	}
	if len(row.Retry) > 0 {
		_ = json.Unmarshal(row.Retry, &resp.Retry)
	}
	if len(row.Schedule) > 0 {
		var spec models.ScheduleSpec
		if err := json.Unmarshal(row.Schedule, &spec); err == nil {
			resp.Schedule = &spec
		}
	}
	return resp
}
