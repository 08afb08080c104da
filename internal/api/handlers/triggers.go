package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aranyasourav/triggerhub/internal/api/response"
	"github.com/aranyasourav/triggerhub/internal/logging"
	"github.com/aranyasourav/triggerhub/internal/models"
	"github.com/aranyasourav/triggerhub/internal/storage"
	"github.com/aranyasourav/triggerhub/internal/triggers"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TriggerHandler handles trigger config CRUD requests. This is the
// "external collaborator" input surface the engine merely consumes a
// snapshot of; it exists so the repository is runnable end-to-end.
type TriggerHandler struct {
	logger  logging.Logger
	service *triggers.Service
}

// NewTriggerHandler creates a new trigger handler.
func NewTriggerHandler(logger logging.Logger, service *triggers.Service) *TriggerHandler {
	return &TriggerHandler{
		logger:  logger.With(zap.String("handler", "trigger")),
		service: service,
	}
}

// CreateTrigger godoc
// @Summary Register a trigger config row
// @Description Registers an ET (event) or ST (scheduled) trigger config row
// @Tags Triggers
// @Accept json
// @Produce json
// @Param trigger body models.CreateTriggerRequest true "Trigger configuration"
// @Success 201 {object} models.TriggerResponse
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/triggers [post]
func (h *TriggerHandler) CreateTrigger(c *gin.Context) {
	var req models.CreateTriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	result, err := h.service.CreateTrigger(c.Request.Context(), req)
	if h.handleServiceError(c, err, "create trigger") {
		return
	}

	h.logger.Info("trigger created",
		zap.String("trigger_id", result.ID),
		zap.String("kind", string(result.Kind)),
		zap.String("request_id", response.GetRequestID(c)),
	)
	response.Created(c, result, "trigger created successfully")
}

// ListTriggers godoc
// @Summary List trigger config rows
// @Tags Triggers
// @Produce json
// @Param kind query string false "Filter by kind" Enums(event, scheduled)
// @Param status query string false "Filter by status" Enums(active, inactive)
// @Param page query int false "Page number" default(1) minimum(1)
// @Param limit query int false "Items per page" default(20) minimum(1) maximum(100)
// @Success 200 {object} models.TriggerListResponse
// @Router /api/v1/triggers [get]
func (h *TriggerHandler) ListTriggers(c *gin.Context) {
	var query models.ListTriggersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "invalid query parameters", err.Error())
		return
	}

	result, err := h.service.ListTriggers(c.Request.Context(), query)
	if h.handleServiceError(c, err, "list triggers") {
		return
	}
	response.Success(c, http.StatusOK, result, "")
}

// GetTrigger godoc
// @Summary Get a trigger config row
// @Tags Triggers
// @Produce json
// @Param id path string true "Trigger ID"
// @Success 200 {object} models.TriggerResponse
// @Failure 404 {object} response.ErrorResponse "Trigger not found"
// @Router /api/v1/triggers/{id} [get]
func (h *TriggerHandler) GetTrigger(c *gin.Context) {
	result, err := h.service.GetTrigger(c.Request.Context(), c.Param("id"))
	if h.handleServiceError(c, err, "get trigger") {
		return
	}
	response.OK(c, result)
}

// UpdateTrigger godoc
// @Summary Patch a trigger config row
// @Description Patches status, webhook_url, headers, or retry policy. Only affects future firings.
// @Tags Triggers
// @Accept json
// @Produce json
// @Param id path string true "Trigger ID"
// @Param trigger body models.UpdateTriggerRequest true "Fields to patch"
// @Success 200 {object} models.TriggerResponse
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Failure 404 {object} response.ErrorResponse "Trigger not found"
// @Router /api/v1/triggers/{id} [patch]
func (h *TriggerHandler) UpdateTrigger(c *gin.Context) {
	var req models.UpdateTriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	result, err := h.service.UpdateTrigger(c.Request.Context(), c.Param("id"), req)
	if h.handleServiceError(c, err, "update trigger") {
		return
	}
	response.OK(c, result)
}

// DeleteTrigger godoc
// @Summary Delete a trigger config row
// @Tags Triggers
// @Param id path string true "Trigger ID"
// @Success 204 "Trigger deleted"
// @Failure 404 {object} response.ErrorResponse "Trigger not found"
// @Router /api/v1/triggers/{id} [delete]
func (h *TriggerHandler) DeleteTrigger(c *gin.Context) {
	trigger, err := h.service.GetTrigger(c.Request.Context(), c.Param("id"))
	if h.handleServiceError(c, err, "delete trigger") {
		return
	}
	if h.handleServiceError(c, h.service.DeleteTrigger(c.Request.Context(), trigger.Kind, trigger.Name), "delete trigger") {
		return
	}
	response.NoContent(c)
}

// SetSchema godoc
// @Summary Upload a JSON Schema for a trigger
// @Description Stores a schema that ad-hoc scheduled-event payloads for this trigger are validated against; no other payload is validated
// @Tags Triggers
// @Accept json
// @Param id path string true "Trigger ID"
// @Param schema body object true "JSON Schema document"
// @Success 204 "Schema stored"
// @Failure 400 {object} response.ErrorResponse "Invalid schema document"
// @Failure 404 {object} response.ErrorResponse "Trigger not found"
// @Router /api/v1/triggers/{id}/schema [post]
func (h *TriggerHandler) SetSchema(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "failed to read request body", err.Error())
		return
	}
	if !json.Valid(body) {
		response.BadRequest(c, "schema must be valid JSON", nil)
		return
	}

	if h.handleServiceError(c, h.service.SetSchema(c.Request.Context(), c.Param("id"), body), "set trigger schema") {
		return
	}
	response.NoContent(c)
}

func (h *TriggerHandler) handleServiceError(c *gin.Context, err error, operation string) bool {
	if err == nil {
		return false
	}

	var validationErr triggers.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(c, "validation failed", validationErr.Error())
	case errors.Is(err, storage.ErrTriggerNotFound):
		response.NotFound(c, "trigger not found")
	default:
		h.logger.Error(operation+" failed",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.InternalServerError(c, "internal server error")
	}
	return true
}
