package handlers

import (
	"context"

	"github.com/aranyasourav/triggerhub/internal/api/response"
	"github.com/aranyasourav/triggerhub/internal/logging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MetricsSource reports the counters the /metrics endpoint surfaces.
// Backed by the same queue stores the engine uses, not a separate
// aggregation pipeline.
type MetricsSource interface {
	EventQueueCounts(ctx context.Context) (delivered, errored, pending int64, err error)
	ScheduledQueueCounts(ctx context.Context) (delivered, errored, dead, pending int64, err error)
	InFlight() int64
}

// MetricsHandler serves platform counters for the admin API.
type MetricsHandler struct {
	logger logging.Logger
	source MetricsSource
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(logger logging.Logger, source MetricsSource) *MetricsHandler {
	return &MetricsHandler{logger: logger, source: source}
}

// MetricsResponse represents the metrics response.
type MetricsResponse struct {
	EventDelivered     int64 `json:"event_delivered"`
	EventError         int64 `json:"event_error"`
	EventPending       int64 `json:"event_pending"`
	ScheduledDelivered int64 `json:"scheduled_delivered"`
	ScheduledError     int64 `json:"scheduled_error"`
	ScheduledDead      int64 `json:"scheduled_dead"`
	ScheduledPending   int64 `json:"scheduled_pending"`
	PermitsInFlight    int64 `json:"permits_in_flight"`
} // @name MetricsResponse

// Metrics godoc
// @Summary Get platform metrics
// @Description Returns delivery counters for both queues and the permit pool's in-flight gauge
// @Tags System
// @Produce json
// @Success 200 {object} MetricsResponse
// @Router /metrics [get]
func (h *MetricsHandler) Metrics(c *gin.Context) {
	eventDelivered, eventError, eventPending, err := h.source.EventQueueCounts(c.Request.Context())
	if err != nil {
		h.logger.Error("event queue counts failed", zap.Error(err))
		response.InternalServerError(c, "failed to compute metrics")
		return
	}

	schedDelivered, schedError, schedDead, schedPending, err := h.source.ScheduledQueueCounts(c.Request.Context())
	if err != nil {
		h.logger.Error("scheduled queue counts failed", zap.Error(err))
		response.InternalServerError(c, "failed to compute metrics")
		return
	}

	response.OK(c, MetricsResponse{
		EventDelivered:     eventDelivered,
		EventError:         eventError,
		EventPending:       eventPending,
		ScheduledDelivered: schedDelivered,
		ScheduledError:     schedError,
		ScheduledDead:      schedDead,
		ScheduledPending:   schedPending,
		PermitsInFlight:    h.source.InFlight(),
	})
}
