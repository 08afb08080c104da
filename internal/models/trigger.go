package models

import (
	"encoding/json"
	"time"
)

// TriggerStatus controls whether a trigger config is eligible to appear in
// a registry snapshot.
type TriggerStatus string

const (
	TriggerStatusActive   TriggerStatus = "active"
	TriggerStatusInactive TriggerStatus = "inactive"
)

// ScheduleKind distinguishes cron-materialized schedules from ad-hoc,
// API-inserted ones.
type ScheduleKind string

const (
	ScheduleKindCron   ScheduleKind = "cron"
	ScheduleKindAdHoc  ScheduleKind = "ad-hoc"
)

// Header is a single configured HTTP header, kept as an ordered pair
// (rather than a map) so header-merge order is deterministic and
// test-observable.
type Header struct {
	Name  string `json:"name" example:"X-Hasura-From"`
	Value string `json:"value" example:"billing-service"`
}

// RetryPolicy is the per-trigger retry configuration.
type RetryPolicy struct {
	NumRetries      int `json:"num_retries" example:"3"`
	IntervalSeconds int `json:"interval_seconds" example:"10"`
	TimeoutSeconds  int `json:"timeout_seconds" example:"60"`
}

// EventTriggerConfig is the resolved, in-memory configuration for one ET
// trigger, as exposed by the Trigger Registry.
type EventTriggerConfig struct {
	Name       string      `json:"name"`
	WebhookURL string      `json:"webhook_url"`
	Headers    []Header    `json:"headers,omitempty"`
	Retry      RetryPolicy `json:"retry"`
	Status     TriggerStatus
}

// ScheduledTriggerConfig is the resolved, in-memory configuration for one
// ST trigger: everything an EventTriggerConfig has, plus a schedule and a
// lateness tolerance.
type ScheduledTriggerConfig struct {
	Name             string          `json:"name"`
	WebhookURL       string          `json:"webhook_url"`
	Headers          []Header        `json:"headers,omitempty"`
	Retry            RetryPolicy     `json:"retry"`
	Schedule         ScheduleKind    `json:"schedule"`
	CronExpr         string          `json:"cron_expr,omitempty"`
	DefaultPayload   json.RawMessage `json:"default_payload,omitempty"`
	ToleranceSeconds int             `json:"tolerance_seconds" example:"21600"`
	Status           TriggerStatus
}

// TriggerConfigRow is the row shape persisted for both ET and ST trigger
// configuration; Kind discriminates which resolved config type it feeds
// and which backing table (event_trigger_config or hdb_scheduled_trigger)
// a given row lives in.
type TriggerConfigRow struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Kind       TriggerKind     `json:"kind"`
	Status     TriggerStatus   `json:"status"`
	WebhookURL string          `json:"webhook_url"`
	Headers    json.RawMessage `json:"headers"`
	Retry      json.RawMessage `json:"retry"`
	Schedule   json.RawMessage `json:"schedule,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TriggerKind discriminates the two trigger families this engine serves.
type TriggerKind string

const (
	TriggerKindEvent     TriggerKind = "event"
	TriggerKindScheduled TriggerKind = "scheduled"
)

// CreateTriggerRequest is the admin API request body for registering a
// trigger config row.
type CreateTriggerRequest struct {
	Name       string          `json:"name" binding:"required" example:"orders_webhook"`
	Kind       TriggerKind     `json:"kind" binding:"required,oneof=event scheduled" example:"event"`
	WebhookURL string          `json:"webhook_url" binding:"required,url" example:"https://example.com/hook"`
	Headers    []Header        `json:"headers,omitempty"`
	Retry      RetryPolicy     `json:"retry"`
	Schedule   *ScheduleSpec   `json:"schedule,omitempty"`
	Schema     json.RawMessage `json:"schema,omitempty" swaggertype:"object"`
} // @name CreateTriggerRequest

// ScheduleSpec is the schedule portion of a scheduled-trigger request.
type ScheduleSpec struct {
	Kind             ScheduleKind    `json:"kind" binding:"required,oneof=cron ad-hoc" example:"cron"`
	CronExpr         string          `json:"cron_expr,omitempty" example:"*/5 * * * *"`
	DefaultPayload   json.RawMessage `json:"default_payload,omitempty" swaggertype:"object"`
	ToleranceSeconds int             `json:"tolerance_seconds" example:"21600"`
}

// UpdateTriggerRequest patches mutable fields of a trigger config row.
type UpdateTriggerRequest struct {
	Status     *TriggerStatus `json:"status,omitempty" binding:"omitempty,oneof=active inactive"`
	WebhookURL *string        `json:"webhook_url,omitempty" binding:"omitempty,url"`
	Headers    []Header       `json:"headers,omitempty"`
	Retry      *RetryPolicy   `json:"retry,omitempty"`
} // @name UpdateTriggerRequest

// TriggerResponse is the admin API projection of a trigger config row.
type TriggerResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Kind       TriggerKind     `json:"kind"`
	Status     TriggerStatus   `json:"status"`
	WebhookURL string          `json:"webhook_url"`
	Headers    []Header        `json:"headers,omitempty"`
	Retry      RetryPolicy     `json:"retry"`
	Schedule   *ScheduleSpec   `json:"schedule,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
} // @name TriggerResponse

// ListTriggersQuery represents query parameters for listing trigger config rows.
type ListTriggersQuery struct {
	Kind   string `form:"kind" binding:"omitempty,oneof=event scheduled" example:"event"`
	Status string `form:"status" binding:"omitempty,oneof=active inactive" example:"active"`
	Page   int    `form:"page" binding:"omitempty,min=1" example:"1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100" example:"20"`
} // @name ListTriggersQuery

// TriggerListResponse is the paginated response for listing trigger config rows.
type TriggerListResponse struct {
	Triggers   []TriggerResponse `json:"triggers"`
	Pagination Pagination        `json:"pagination"`
} // @name TriggerListResponse
