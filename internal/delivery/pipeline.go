package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aranyasourav/triggerhub/internal/models"
	"github.com/aranyasourav/triggerhub/pkg/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultRetryIntervalSeconds = 10
const defaultTimeoutSeconds = 60

// EventOutcomeRecorder atomically writes one ET delivery attempt's
// invocation log row and its resulting row transition in a single
// transaction, so a crash between the two writes can never happen and
// tries always tracks the invocation_logs rows recorded for a given row
// one-for-one.
type EventOutcomeRecorder interface {
	RecordEventDelivered(ctx context.Context, inv *models.InvocationLog, id string, tries int) error
	RecordEventError(ctx context.Context, inv *models.InvocationLog, id string, tries int) error
	RecordEventRetry(ctx context.Context, inv *models.InvocationLog, id string, tries int, nextRetryAt time.Time) error
}

// ScheduledOutcomeRecorder is the ST equivalent of EventOutcomeRecorder.
// MarkScheduledDead stands alone: the tolerance check that produces it runs
// before any delivery attempt, so no invocation log row accompanies it.
type ScheduledOutcomeRecorder interface {
	RecordScheduledDelivered(ctx context.Context, inv *models.InvocationLog, id string, tries int) error
	RecordScheduledError(ctx context.Context, inv *models.InvocationLog, id string, tries int) error
	RecordScheduledRetry(ctx context.Context, inv *models.InvocationLog, id string, tries int, nextRetryAt time.Time) error
	MarkScheduledDead(ctx context.Context, id string) error
}

// InvocationNotifier publishes a best-effort observability event after an
// invocation has already been durably recorded by an OutcomeRecorder; it
// never participates in that write's transaction, so a notifier outage
// never blocks or fails delivery.
type InvocationNotifier interface {
	Notify(ctx context.Context, inv *models.InvocationLog)
}

// Pipeline renders, dispatches, classifies, and transitions deliveries for
// both queues, sharing one permit pool and HTTP client.
type Pipeline struct {
	client   *http.Client
	permits  *Permits
	clock    clock.Clock
	notifier InvocationNotifier
	logger   *zap.Logger
}

// NewPipeline wires a Pipeline. notifier may be nil to disable the
// best-effort observability fan-out.
func NewPipeline(permits *Permits, c clock.Clock, notifier InvocationNotifier, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		client:   &http.Client{},
		permits:  permits,
		clock:    c,
		notifier: notifier,
		logger:   logger,
	}
}

// DeliverEvent dispatches one ET row and applies its terminal transition.
func (p *Pipeline) DeliverEvent(ctx context.Context, e *models.EventLog, cfg models.EventTriggerConfig, store EventOutcomeRecorder) error {
	if err := p.permits.Acquire(ctx); err != nil {
		return fmt.Errorf("acquire delivery permit: %w", err)
	}
	defer p.permits.Release()

	body, composeErr := ComposeEventBody(e, cfg.Retry.NumRetries, e.Tries)
	headers := MergeHeaders(cfg.Headers)

	var o outcome
	if composeErr != nil {
		o = classifyOtherError(composeErr)
	} else {
		o = p.send(ctx, cfg.WebhookURL, body, headers, cfg.Retry.TimeoutSeconds)
	}

	tries := e.Tries + 1
	inv := p.buildInvocation(models.QueueKindEvent, e.ID, body, headers, o)

	maxAttempts := cfg.Retry.NumRetries + 1
	switch {
	case o.success():
		if err := store.RecordEventDelivered(ctx, inv, e.ID, tries); err != nil {
			p.logger.Error("record event delivered", zap.String("id", e.ID), zap.Error(err))
			return err
		}
	case tries < maxAttempts || o.retryAfter != nil:
		retryAt := p.computeRetryAt(o.retryAfter, cfg.Retry.IntervalSeconds)
		if err := store.RecordEventRetry(ctx, inv, e.ID, tries, retryAt); err != nil {
			p.logger.Error("record event retry", zap.String("id", e.ID), zap.Error(err))
			return err
		}
	default:
		if err := store.RecordEventError(ctx, inv, e.ID, tries); err != nil {
			p.logger.Error("record event error", zap.String("id", e.ID), zap.Error(err))
			return err
		}
	}
	p.notify(ctx, inv)
	return nil
}

// DeliverScheduled dispatches one ST row and applies its terminal
// transition, including the pre-delivery tolerance check.
func (p *Pipeline) DeliverScheduled(ctx context.Context, e *models.ScheduledEvent, cfg models.ScheduledTriggerConfig, store ScheduledOutcomeRecorder) error {
	now := p.clock.Now()
	if cfg.ToleranceSeconds > 0 && now.Sub(e.ScheduledTime) > time.Duration(cfg.ToleranceSeconds)*time.Second {
		if err := store.MarkScheduledDead(ctx, e.ID); err != nil {
			p.logger.Error("mark scheduled dead", zap.String("id", e.ID), zap.Error(err))
			return err
		}
		return nil
	}

	if err := p.permits.Acquire(ctx); err != nil {
		return fmt.Errorf("acquire delivery permit: %w", err)
	}
	defer p.permits.Release()

	body, composeErr := ComposeScheduledBody(e, cfg)
	headers := MergeHeaders(cfg.Headers)

	var o outcome
	if composeErr != nil {
		o = classifyOtherError(composeErr)
	} else {
		o = p.send(ctx, cfg.WebhookURL, body, headers, cfg.Retry.TimeoutSeconds)
	}

	tries := e.Tries + 1
	inv := p.buildInvocation(models.QueueKindScheduled, e.ID, body, headers, o)

	maxAttempts := cfg.Retry.NumRetries + 1
	switch {
	case o.success():
		if err := store.RecordScheduledDelivered(ctx, inv, e.ID, tries); err != nil {
			p.logger.Error("record scheduled delivered", zap.String("id", e.ID), zap.Error(err))
			return err
		}
	case tries < maxAttempts || o.retryAfter != nil:
		retryAt := p.computeRetryAt(o.retryAfter, cfg.Retry.IntervalSeconds)
		if err := store.RecordScheduledRetry(ctx, inv, e.ID, tries, retryAt); err != nil {
			p.logger.Error("record scheduled retry", zap.String("id", e.ID), zap.Error(err))
			return err
		}
	default:
		if err := store.RecordScheduledError(ctx, inv, e.ID, tries); err != nil {
			p.logger.Error("record scheduled error", zap.String("id", e.ID), zap.Error(err))
			return err
		}
	}
	p.notify(ctx, inv)
	return nil
}

// send issues the POST and classifies the result; it never returns an
// error — every failure mode is folded into an outcome.
func (p *Pipeline) send(ctx context.Context, url string, body []byte, headers []models.Header, timeoutSeconds int) outcome {
	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return classifyOtherError(err)
	}
	for _, h := range headers {
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	return classifyResponse(resp)
}

func (p *Pipeline) computeRetryAt(retryAfter *int, configuredIntervalSeconds int) time.Time {
	interval := configuredIntervalSeconds
	if interval <= 0 {
		interval = defaultRetryIntervalSeconds
	}
	seconds := interval
	if retryAfter != nil {
		seconds = *retryAfter
	}
	return p.clock.Now().Add(time.Duration(seconds) * time.Second)
}

// buildInvocation renders the invocation log row for one delivery attempt.
// It does not write anything — the row is written atomically with the
// row's terminal/retry transition by the EventOutcomeRecorder/
// ScheduledOutcomeRecorder methods the caller invokes next.
func (p *Pipeline) buildInvocation(queue models.QueueKind, rowID string, body []byte, headers []models.Header, o outcome) *models.InvocationLog {
	reqHeaders := make([]models.RequestHeader, 0, len(headers))
	for _, h := range headers {
		reqHeaders = append(reqHeaders, models.RequestHeader{Name: h.Name, Value: h.Value})
	}
	reqJSON, err := json.Marshal(models.InvocationRequest{
		Payload: body,
		Headers: reqHeaders,
		Version: models.InvocationVersion,
	})
	if err != nil {
		p.logger.Error("marshal invocation request", zap.Error(err))
		reqJSON = []byte("null")
	}

	return &models.InvocationLog{
		ID:        uuid.New().String(),
		Queue:     queue,
		RowID:     rowID,
		Status:    o.storedStatus(),
		Request:   reqJSON,
		Response:  o.responseEnvelope(),
		CreatedAt: p.clock.Now(),
	}
}

// notify publishes the best-effort observability fan-out for an invocation
// already durably recorded; it runs after the transactional write commits
// and never affects the delivery result.
func (p *Pipeline) notify(ctx context.Context, inv *models.InvocationLog) {
	if p.notifier == nil {
		return
	}
	p.notifier.Notify(ctx, inv)
}
