package handlers

import (
	"context"
	"net/http"

	"github.com/aranyasourav/triggerhub/internal/api/response"
	"github.com/aranyasourav/triggerhub/internal/logging"
	"github.com/aranyasourav/triggerhub/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EventQueryService is the read-only surface the event handler calls.
type EventQueryService interface {
	ListEvents(ctx context.Context, q models.ListEventsQuery) (models.EventLogListResponse, error)
	GetEvent(ctx context.Context, id string) (*models.EventLogResponse, error)
	EventInvocations(ctx context.Context, id string) ([]models.InvocationLog, error)
}

// EventHandler handles event_log observability requests.
type EventHandler struct {
	logger  logging.Logger
	service EventQueryService
}

// NewEventHandler creates a new event handler.
func NewEventHandler(logger logging.Logger, service EventQueryService) *EventHandler {
	return &EventHandler{logger: logger.With(zap.String("handler", "event")), service: service}
}

// ListEvents godoc
// @Summary List event_log rows
// @Tags Events
// @Produce json
// @Param trigger_name query string false "Filter by trigger name"
// @Param page query int false "Page number" default(1) minimum(1)
// @Param limit query int false "Items per page" default(20) minimum(1) maximum(100)
// @Success 200 {object} models.EventLogListResponse
// @Router /api/v1/events [get]
func (h *EventHandler) ListEvents(c *gin.Context) {
	var query models.ListEventsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "invalid query parameters", err.Error())
		return
	}

	result, err := h.service.ListEvents(c.Request.Context(), query)
	if err != nil {
		h.logger.Error("list events failed", zap.Error(err), zap.String("request_id", response.GetRequestID(c)))
		response.InternalServerError(c, "failed to list events")
		return
	}
	response.Success(c, http.StatusOK, result, "")
}

// GetEvent godoc
// @Summary Get a single event_log row
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} models.EventLogResponse
// @Failure 404 {object} response.ErrorResponse "Event not found"
// @Router /api/v1/events/{id} [get]
func (h *EventHandler) GetEvent(c *gin.Context) {
	id := c.Param("id")
	event, err := h.service.GetEvent(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get event failed", zap.Error(err), zap.String("event_id", id), zap.String("request_id", response.GetRequestID(c)))
		response.InternalServerError(c, "failed to get event")
		return
	}
	if event == nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, event)
}

// ListEventInvocations godoc
// @Summary List invocation log history for an event_log row
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} []models.InvocationLog
// @Router /api/v1/events/{id}/invocations [get]
func (h *EventHandler) ListEventInvocations(c *gin.Context) {
	id := c.Param("id")
	invocations, err := h.service.EventInvocations(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list event invocations failed", zap.Error(err), zap.String("event_id", id), zap.String("request_id", response.GetRequestID(c)))
		response.InternalServerError(c, "failed to list invocations")
		return
	}
	response.OK(c, invocations)
}
