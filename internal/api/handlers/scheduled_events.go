package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/aranyasourav/triggerhub/internal/api/response"
	"github.com/aranyasourav/triggerhub/internal/logging"
	"github.com/aranyasourav/triggerhub/internal/models"
	"github.com/aranyasourav/triggerhub/internal/storage"
	"github.com/aranyasourav/triggerhub/internal/triggers"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScheduledEventService is the surface the scheduled-event handler calls:
// observability reads plus the two ad-hoc mutations the API surface owns.
type ScheduledEventService interface {
	ListScheduledEvents(ctx context.Context, q models.ListScheduledEventsQuery) (models.ScheduledEventListResponse, error)
	GetScheduledEvent(ctx context.Context, id string) (*models.ScheduledEventResponse, error)
	ScheduledEventInvocations(ctx context.Context, id string) ([]models.InvocationLog, error)
	CreateScheduledEvent(ctx context.Context, req models.CreateScheduledEventRequest) (*models.ScheduledEventResponse, error)
	CancelScheduledEvent(ctx context.Context, id string) error
}

// ScheduledEventHandler handles hdb_scheduled_events observability and
// ad-hoc insertion requests.
type ScheduledEventHandler struct {
	logger  logging.Logger
	service ScheduledEventService
}

// NewScheduledEventHandler creates a new scheduled-event handler.
func NewScheduledEventHandler(logger logging.Logger, service ScheduledEventService) *ScheduledEventHandler {
	return &ScheduledEventHandler{logger: logger.With(zap.String("handler", "scheduled_event")), service: service}
}

// ListScheduledEvents godoc
// @Summary List hdb_scheduled_events rows
// @Tags ScheduledEvents
// @Produce json
// @Param name query string false "Filter by trigger name"
// @Param page query int false "Page number" default(1) minimum(1)
// @Param limit query int false "Items per page" default(20) minimum(1) maximum(100)
// @Success 200 {object} models.ScheduledEventListResponse
// @Router /api/v1/scheduled-events [get]
func (h *ScheduledEventHandler) ListScheduledEvents(c *gin.Context) {
	var query models.ListScheduledEventsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "invalid query parameters", err.Error())
		return
	}

	result, err := h.service.ListScheduledEvents(c.Request.Context(), query)
	if err != nil {
		h.logger.Error("list scheduled events failed", zap.Error(err), zap.String("request_id", response.GetRequestID(c)))
		response.InternalServerError(c, "failed to list scheduled events")
		return
	}
	response.Success(c, http.StatusOK, result, "")
}

// GetScheduledEvent godoc
// @Summary Get a single hdb_scheduled_events row
// @Tags ScheduledEvents
// @Produce json
// @Param id path string true "Scheduled event ID"
// @Success 200 {object} models.ScheduledEventResponse
// @Failure 404 {object} response.ErrorResponse "Scheduled event not found"
// @Router /api/v1/scheduled-events/{id} [get]
func (h *ScheduledEventHandler) GetScheduledEvent(c *gin.Context) {
	id := c.Param("id")
	event, err := h.service.GetScheduledEvent(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get scheduled event failed", zap.Error(err), zap.String("scheduled_event_id", id), zap.String("request_id", response.GetRequestID(c)))
		response.InternalServerError(c, "failed to get scheduled event")
		return
	}
	if event == nil {
		response.NotFound(c, "scheduled event not found")
		return
	}
	response.OK(c, event)
}

// ListScheduledEventInvocations godoc
// @Summary List invocation log history for a hdb_scheduled_events row
// @Tags ScheduledEvents
// @Produce json
// @Param id path string true "Scheduled event ID"
// @Success 200 {object} []models.InvocationLog
// @Router /api/v1/scheduled-events/{id}/invocations [get]
func (h *ScheduledEventHandler) ListScheduledEventInvocations(c *gin.Context) {
	id := c.Param("id")
	invocations, err := h.service.ScheduledEventInvocations(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list scheduled event invocations failed", zap.Error(err), zap.String("scheduled_event_id", id), zap.String("request_id", response.GetRequestID(c)))
		response.InternalServerError(c, "failed to list invocations")
		return
	}
	response.OK(c, invocations)
}

// CreateScheduledEvent godoc
// @Summary Insert an ad-hoc scheduled event
// @Description Ad-hoc triggers are not materialized by the cron horizon — they are inserted directly
// @Tags ScheduledEvents
// @Accept json
// @Produce json
// @Param event body models.CreateScheduledEventRequest true "Ad-hoc scheduled event"
// @Success 201 {object} models.ScheduledEventResponse
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Router /api/v1/scheduled-events [post]
func (h *ScheduledEventHandler) CreateScheduledEvent(c *gin.Context) {
	var req models.CreateScheduledEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	result, err := h.service.CreateScheduledEvent(c.Request.Context(), req)
	if err != nil {
		var validationErr triggers.ValidationError
		if errors.As(err, &validationErr) {
			response.BadRequest(c, "validation failed", validationErr.Error())
			return
		}
		h.logger.Error("create scheduled event failed", zap.Error(err), zap.String("request_id", response.GetRequestID(c)))
		response.InternalServerError(c, "failed to create scheduled event")
		return
	}
	response.Created(c, result, "scheduled event created")
}

// CancelScheduledEvent godoc
// @Summary Cancel a pending scheduled event
// @Tags ScheduledEvents
// @Param id path string true "Scheduled event ID"
// @Success 204 "Cancelled"
// @Failure 404 {object} response.ErrorResponse "Scheduled event not found"
// @Router /api/v1/scheduled-events/{id}/cancel [post]
func (h *ScheduledEventHandler) CancelScheduledEvent(c *gin.Context) {
	id := c.Param("id")
	err := h.service.CancelScheduledEvent(c.Request.Context(), id)
	switch {
	case err == nil:
		response.NoContent(c)
	case errors.Is(err, storage.ErrRowNotFound):
		response.NotFound(c, "scheduled event not found")
	default:
		h.logger.Error("cancel scheduled event failed", zap.Error(err), zap.String("scheduled_event_id", id), zap.String("request_id", response.GetRequestID(c)))
		response.InternalServerError(c, "failed to cancel scheduled event")
	}
}
