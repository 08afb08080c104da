package models

import (
	"encoding/json"
	"time"
)

// EventLog is a row in the event_log (ET) queue. One row is produced per
// qualifying row-change by a database trigger outside this module's
// scope; this engine only leases, delivers, and transitions rows that
// already exist.
type EventLog struct {
	ID          string          `json:"id"`
	SchemaName  string          `json:"schema_name"`
	TableName   string          `json:"table_name"`
	TriggerName string          `json:"trigger_name"`
	Payload     json.RawMessage `json:"payload"`
	Tries       int             `json:"tries"`
	CreatedAt   time.Time       `json:"created_at"`

	Locked      bool       `json:"locked"`
	Delivered   bool       `json:"delivered"`
	Error       bool       `json:"error"`
	Archived    bool       `json:"archived"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}

// Terminal reports whether the row must never be re-leased.
func (e *EventLog) Terminal() bool {
	return e.Delivered || e.Error || e.Archived
}

// EventLogResponse is the observability projection of an EventLog row.
type EventLogResponse struct {
	ID          string          `json:"id" example:"660e8400-e29b-41d4-a716-446655440000"`
	SchemaName  string          `json:"schema_name" example:"public"`
	TableName   string          `json:"table_name" example:"orders"`
	TriggerName string          `json:"trigger_name" example:"orders_insert"`
	Payload     json.RawMessage `json:"payload,omitempty" swaggertype:"object"`
	Tries       int             `json:"tries" example:"1"`
	CreatedAt   time.Time       `json:"created_at" example:"2026-07-30T10:30:00Z"`
	Locked      bool            `json:"locked" example:"false"`
	Delivered   bool            `json:"delivered" example:"true"`
	Error       bool            `json:"error" example:"false"`
	Archived    bool            `json:"archived" example:"false"`
	NextRetryAt *time.Time      `json:"next_retry_at,omitempty"`
} // @name EventLogResponse

// ListEventsQuery represents query parameters for listing event_log rows.
type ListEventsQuery struct {
	TriggerName string `form:"trigger_name" example:"orders_insert"`
	Delivered   *bool  `form:"delivered"`
	Error       *bool  `form:"error"`
	Page        int    `form:"page" binding:"omitempty,min=1" example:"1"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=100" example:"20"`
} // @name ListEventsQuery

// EventLogListResponse is the paginated response for listing event_log rows.
type EventLogListResponse struct {
	Events     []EventLogResponse `json:"events"`
	Pagination Pagination         `json:"pagination"`
} // @name EventLogListResponse

// Pagination is shared pagination metadata across list endpoints.
type Pagination struct {
	CurrentPage  int   `json:"current_page" example:"1"`
	PageSize     int   `json:"page_size" example:"20"`
	TotalPages   int   `json:"total_pages" example:"5"`
	TotalRecords int64 `json:"total_records" example:"100"`
} // @name Pagination

// ToEventLogResponse projects a stored row into its wire representation.
func ToEventLogResponse(e *EventLog) EventLogResponse {
	return EventLogResponse{
		ID:          e.ID,
		SchemaName:  e.SchemaName,
		TableName:   e.TableName,
		TriggerName: e.TriggerName,
		Payload:     e.Payload,
		Tries:       e.Tries,
		CreatedAt:   e.CreatedAt,
		Locked:      e.Locked,
		Delivered:   e.Delivered,
		Error:       e.Error,
		Archived:    e.Archived,
		NextRetryAt: e.NextRetryAt,
	}
}
