package models

import (
	"encoding/json"
	"time"
)

// InvocationVersion is the literal version string stamped on every
// invocation log response envelope.
const InvocationVersion = "2"

// RequestHeader is one header name/value pair as recorded in an
// invocation log's serialized request.
type RequestHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// InvocationRequest is the serialized request stored alongside an
// invocation: payload, headers, and invocation version.
type InvocationRequest struct {
	Payload json.RawMessage `json:"payload"`
	Headers []RequestHeader `json:"headers"`
	Version string          `json:"version"`
}

// WebhookResponseData is the `data` payload of a webhook_response envelope.
type WebhookResponseData struct {
	Body    string          `json:"body"`
	Headers []RequestHeader `json:"headers"`
	Status  int             `json:"status"`
}

// ClientErrorData is the `data` payload of a client_error envelope.
type ClientErrorData struct {
	Message string `json:"message"`
}

// InvocationResponse is the serialized response envelope: either a
// `webhook_response` or a `client_error` variant.
type InvocationResponse struct {
	Type    string               `json:"type"`
	Version string               `json:"version"`
	Webhook *WebhookResponseData `json:"data,omitempty"`
}

// NewWebhookResponse builds the webhook_response envelope for a real HTTP reply.
func NewWebhookResponse(body string, headers []RequestHeader, status int) InvocationResponse {
	return InvocationResponse{
		Type:    "webhook_response",
		Version: InvocationVersion,
		Webhook: &WebhookResponseData{Body: body, Headers: headers, Status: status},
	}
}

// clientErrorResponse mirrors InvocationResponse's shape but with a
// client_error payload; kept distinct so the `data` field marshals with
// the right member names without tagging WebhookResponseData as optional.
type clientErrorResponse struct {
	Type    string          `json:"type"`
	Version string          `json:"version"`
	Data    ClientErrorData `json:"data"`
}

// MarshalClientError serializes a client_error envelope for storage; kept
// as a free function (rather than a method on InvocationResponse) because
// the two envelope shapes genuinely differ in their `data` member.
func MarshalClientError(message string) json.RawMessage {
	raw, _ := json.Marshal(clientErrorResponse{
		Type:    "client_error",
		Version: InvocationVersion,
		Data:    ClientErrorData{Message: message},
	})
	return raw
}

// MarshalWebhookResponse serializes a webhook_response envelope for storage.
func MarshalWebhookResponse(body string, headers []RequestHeader, status int) json.RawMessage {
	raw, _ := json.Marshal(NewWebhookResponse(body, headers, status))
	return raw
}

// QueueKind discriminates which queue an invocation log row belongs to.
type QueueKind string

const (
	QueueKindEvent     QueueKind = "event"
	QueueKindScheduled QueueKind = "scheduled"
)

// InvocationLog is one delivery attempt, recorded regardless of outcome
// (glossary: "Invocation").
type InvocationLog struct {
	ID        string          `json:"id"`
	Queue     QueueKind       `json:"queue"`
	RowID     string          `json:"row_id"` // event_log.id or hdb_scheduled_events.id
	Status    int             `json:"status"` // real HTTP status, or >=1000 synthesized client_error
	Request   json.RawMessage `json:"request"`
	Response  json.RawMessage `json:"response"`
	CreatedAt time.Time       `json:"created_at"`
}

// Synthesized status codes for client_error outcomes.
const (
	StatusTransportFailure = 1000
	StatusParseFailure     = 1001
	StatusOtherFrameworkErr = 500
)

// IsSynthesized reports whether status denotes a synthesized client error
// rather than a real HTTP status code.
func IsSynthesized(status int) bool {
	return status >= 1000
}
