package models

import (
	"encoding/json"
	"time"
)

// ScheduledEvent is a row in the hdb_scheduled_events (ST) queue. Rows are
// produced either by the Scheduled Materializer (cron triggers) or
// directly by the admin API (ad-hoc triggers).
type ScheduledEvent struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	ScheduledTime       time.Time       `json:"scheduled_time"`
	AdditionalPayload   json.RawMessage `json:"additional_payload,omitempty"`
	Tries              int             `json:"tries"`
	CreatedAt          time.Time       `json:"created_at"`

	Locked      bool       `json:"locked"`
	Delivered   bool       `json:"delivered"`
	Error       bool       `json:"error"`
	Dead        bool       `json:"dead"`
	Cancelled   bool       `json:"cancelled"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}

// Terminal reports whether the row must never be re-leased.
func (s *ScheduledEvent) Terminal() bool {
	return s.Delivered || s.Error || s.Dead || s.Cancelled
}

// ScheduledEventResponse is the observability projection of a ScheduledEvent row.
type ScheduledEventResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	ScheduledTime     time.Time       `json:"scheduled_time"`
	AdditionalPayload json.RawMessage `json:"additional_payload,omitempty" swaggertype:"object"`
	Tries             int             `json:"tries"`
	CreatedAt         time.Time       `json:"created_at"`
	Locked            bool            `json:"locked"`
	Delivered         bool            `json:"delivered"`
	Error             bool            `json:"error"`
	Dead              bool            `json:"dead"`
	Cancelled         bool            `json:"cancelled"`
	NextRetryAt       *time.Time      `json:"next_retry_at,omitempty"`
} // @name ScheduledEventResponse

// ToScheduledEventResponse projects a stored row into its wire representation.
func ToScheduledEventResponse(s *ScheduledEvent) ScheduledEventResponse {
	return ScheduledEventResponse{
		ID:                s.ID,
		Name:              s.Name,
		ScheduledTime:     s.ScheduledTime,
		AdditionalPayload: s.AdditionalPayload,
		Tries:             s.Tries,
		CreatedAt:         s.CreatedAt,
		Locked:            s.Locked,
		Delivered:         s.Delivered,
		Error:             s.Error,
		Dead:              s.Dead,
		Cancelled:         s.Cancelled,
		NextRetryAt:       s.NextRetryAt,
	}
}

// ListScheduledEventsQuery represents query parameters for listing ST rows.
type ListScheduledEventsQuery struct {
	Name  string `form:"name" example:"daily_digest"`
	Page  int    `form:"page" binding:"omitempty,min=1" example:"1"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100" example:"20"`
} // @name ListScheduledEventsQuery

// ScheduledEventListResponse is the paginated response for listing ST rows.
type ScheduledEventListResponse struct {
	ScheduledEvents []ScheduledEventResponse `json:"scheduled_events"`
	Pagination      Pagination               `json:"pagination"`
} // @name ScheduledEventListResponse

// CreateScheduledEventRequest is the admin API request to insert an ad-hoc
// scheduled event.
type CreateScheduledEventRequest struct {
	Name              string          `json:"name" binding:"required" example:"daily_digest"`
	ScheduledTime     time.Time       `json:"scheduled_time" binding:"required" example:"2026-08-01T09:00:00Z"`
	AdditionalPayload json.RawMessage `json:"additional_payload,omitempty" swaggertype:"object"`
} // @name CreateScheduledEventRequest

// ScheduledEventStats is the derived view hdb_scheduled_events_stats: per
// cron trigger, how many non-terminal rows are upcoming and the latest
// scheduled_time among them.
type ScheduledEventStats struct {
	Name                string
	UpcomingEventsCount int
	MaxScheduledTime    *time.Time
}
