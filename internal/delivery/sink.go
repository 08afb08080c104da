package delivery

import (
	"context"
	"time"

	"github.com/aranyasourav/triggerhub/internal/models"
	platformEvents "github.com/aranyasourav/triggerhub/platform/events"
)

// kafkaSink is the best-effort observability fan-out; narrowed to the one
// method Sink needs so tests can fake it without a real Kafka writer.
type kafkaSink interface {
	Publish(ctx context.Context, event platformEvents.InvocationEvent)
}

// Sink publishes a best-effort summary of an already-recorded invocation to
// Kafka. It implements InvocationNotifier and is deliberately separate from
// the authoritative MySQL write: the invocation log row and its queue row's
// transition are written together, atomically, by the storage layer before
// Sink ever sees the row, so a broker outage here can never affect that
// write or slow delivery.
type Sink struct {
	kafka kafkaSink
}

// NewSink wires a Sink. kafka may be nil to disable the observability fan-out.
func NewSink(kafka kafkaSink) *Sink {
	return &Sink{kafka: kafka}
}

// Notify implements InvocationNotifier.
func (s *Sink) Notify(ctx context.Context, inv *models.InvocationLog) {
	if s.kafka == nil {
		return
	}
	s.kafka.Publish(ctx, platformEvents.InvocationEvent{
		ID:        inv.ID,
		Queue:     string(inv.Queue),
		RowID:     inv.RowID,
		Status:    inv.Status,
		CreatedAt: inv.CreatedAt.Format(time.RFC3339Nano),
	})
}
