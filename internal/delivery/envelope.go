package delivery

import (
	"encoding/json"
	"time"

	"github.com/aranyasourav/triggerhub/internal/models"
)

// eventEnvelope is the exact wire shape of an ET request body. Fields
// are hand-written rather than derived from EventLog directly so a future
// change to the storage row never silently changes the wire contract.
type eventEnvelope struct {
	ID      string          `json:"id"`
	Table   tableRef        `json:"table"`
	Trigger triggerRef      `json:"trigger"`
	Event   json.RawMessage `json:"event"`
	Delivery deliveryInfo   `json:"delivery_info"`
	CreatedAt time.Time     `json:"created_at"`
}

type tableRef struct {
	Schema string `json:"schema"`
	Name   string `json:"name"`
}

type triggerRef struct {
	Name string `json:"name"`
}

type deliveryInfo struct {
	CurrentRetry int `json:"current_retry"`
	MaxRetries   int `json:"max_retries"`
}

// ComposeEventBody renders the ET request body for one attempt. currentRetry
// is the attempt number about to be made (0 on first attempt).
func ComposeEventBody(e *models.EventLog, maxRetries, currentRetry int) ([]byte, error) {
	env := eventEnvelope{
		ID:      e.ID,
		Table:   tableRef{Schema: e.SchemaName, Name: e.TableName},
		Trigger: triggerRef{Name: e.TriggerName},
		Event:   e.Payload,
		Delivery: deliveryInfo{
			CurrentRetry: currentRetry,
			MaxRetries:   maxRetries,
		},
		CreatedAt: e.CreatedAt,
	}
	return json.Marshal(env)
}

// scheduledEnvelope is the exact wire shape of an ST request body.
type scheduledEnvelope struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	ScheduledTime time.Time         `json:"scheduled_time"`
	Tries         int               `json:"tries"`
	Webhook       string            `json:"webhook"`
	Payload       json.RawMessage   `json:"payload"`
	RetryConf     models.RetryPolicy `json:"retry_conf"`
}

// ComposeScheduledBody renders the ST request body. The row's
// AdditionalPayload overrides the trigger's DefaultPayload when non-null;
// if neither is set the field serializes as JSON null, not an absent key.
func ComposeScheduledBody(e *models.ScheduledEvent, cfg models.ScheduledTriggerConfig) ([]byte, error) {
	payload := e.AdditionalPayload
	if len(payload) == 0 {
		payload = cfg.DefaultPayload
	}
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}

	env := scheduledEnvelope{
		ID:            e.ID,
		Name:          e.Name,
		ScheduledTime: e.ScheduledTime,
		Tries:         e.Tries,
		Webhook:       cfg.WebhookURL,
		Payload:       payload,
		RetryConf:     cfg.Retry,
	}
	return json.Marshal(env)
}

// MergeHeaders combines the default headers with trigger-configured ones;
// configured headers win on name collision.
func MergeHeaders(configured []models.Header) []models.Header {
	merged := []models.Header{
		{Name: "User-Agent", Value: "event-trigger-engine/1.0"},
		{Name: "Content-Type", Value: "application/json"},
	}
	for _, h := range configured {
		replaced := false
		for i, m := range merged {
			if m.Name == h.Name {
				merged[i] = h
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, h)
		}
	}
	return merged
}
