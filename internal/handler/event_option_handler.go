package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cve-dashboard/internal/dto"
	"github.com/noah-isme/cve-dashboard/internal/models"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
	"github.com/noah-isme/cve-dashboard/pkg/response"
)

type eventOptionService interface {
	List(ctx context.Context) (dto.EventOptionsResponse, error)
	Create(ctx context.Context, name string) (*models.EventOption, error)
}

// EventOptionHandler lists and registers event names for the filter and forms.
type EventOptionHandler struct {
	service eventOptionService
}

// NewEventOptionHandler constructs the handler.
func NewEventOptionHandler(service eventOptionService) *EventOptionHandler {
	return &EventOptionHandler{service: service}
}

// List godoc
// @Summary List event options
// @Tags EventOptions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /event-options [get]
func (h *EventOptionHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	options, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}

// Create godoc
// @Summary Add an event option
// @Tags EventOptions
// @Accept json
// @Produce json
// @Param payload body dto.EventOptionRequest true "Event option"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /event-options [post]
func (h *EventOptionHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.EventOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, "event option")
		return
	}
	option, err := h.service.Create(c.Request.Context(), req.EventName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, option)
}
