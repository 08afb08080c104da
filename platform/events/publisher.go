package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// InvocationEvent is the best-effort observability record fanned out to
// Kafka after each delivery attempt. It mirrors an invocation log row but
// is not itself part of the durable state machine — publishing failure
// never affects a row's delivered/error/retry transition.
type InvocationEvent struct {
	ID        string `json:"id"`
	Queue     string `json:"queue"`
	RowID     string `json:"row_id"`
	Status    int    `json:"status"`
	CreatedAt string `json:"created_at"`
}

// Publisher fans invocation events out to a Kafka topic, best-effort.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewPublisher constructs a Publisher writing to topic across brokers.
// RequireAcks is set to kafka.RequireOne rather than RequireAll: this sink
// is observability-only, so the extra durability of a full ISR ack isn't
// worth the added latency on the delivery hot path.
func NewPublisher(brokers []string, topic string, logger *zap.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
		logger: logger,
	}
}

// Publish writes one invocation event. Failures are logged, not returned,
// so a Kafka outage never blocks or fails a delivery.
func (p *Publisher) Publish(ctx context.Context, event InvocationEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal invocation event", zap.Error(err))
		return
	}

	msg := kafka.Message{Key: []byte(event.RowID), Value: body}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("publish invocation event to kafka", zap.String("row_id", event.RowID), zap.Error(err))
	}
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
