package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cve-dashboard/internal/dto"
	"github.com/noah-isme/cve-dashboard/internal/middleware"
	"github.com/noah-isme/cve-dashboard/internal/models"
	"github.com/noah-isme/cve-dashboard/internal/service"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
	"github.com/noah-isme/cve-dashboard/pkg/response"
)

type recordService interface {
	Get(ctx context.Context, id int64) (*models.ChangeRecord, error)
	Create(ctx context.Context, req dto.CreateChangeRecordRequest, view service.ViewRefresher) (*service.MutationResult, error)
	Update(ctx context.Context, id int64, req dto.UpdateChangeRecordRequest, view service.ViewRefresher) (*service.MutationResult, error)
	Delete(ctx context.Context, id int64, view service.ViewRefresher) (*service.MutationResult, error)
}

// RecordHandler exposes create, edit and delete of change records.
type RecordHandler struct {
	service recordService
}

// NewRecordHandler constructs the handler.
func NewRecordHandler(service recordService) *RecordHandler {
	return &RecordHandler{service: service}
}

// Get godoc
// @Summary Get a change record
// @Tags Records
// @Produce json
// @Param id path int true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /records/{id} [get]
func (h *RecordHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	id, ok := recordIDParam(c)
	if !ok {
		return
	}
	record, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Create godoc
// @Summary Create a change record
// @Description Validates the form, creates the record and refreshes the session view.
// @Tags Records
// @Accept json
// @Produce json
// @Param payload body dto.CreateChangeRecordRequest true "Record"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /records [post]
func (h *RecordHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	session := sessionFromContext(c)
	if session == nil {
		return
	}
	var req dto.CreateChangeRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, "record")
		return
	}
	result, err := h.service.Create(c.Request.Context(), req, session.Controller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, result.View.Pagination(), middleware.ExtractMeta(c))
}

// Update godoc
// @Summary Edit a change record
// @Tags Records
// @Accept json
// @Produce json
// @Param id path int true "Record ID"
// @Param payload body dto.UpdateChangeRecordRequest true "Record"
// @Success 200 {object} response.Envelope
// @Router /records/{id} [put]
func (h *RecordHandler) Update(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	session := sessionFromContext(c)
	if session == nil {
		return
	}
	id, ok := recordIDParam(c)
	if !ok {
		return
	}
	var req dto.UpdateChangeRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, "record")
		return
	}
	result, err := h.service.Update(c.Request.Context(), id, req, session.Controller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, result.View.Pagination(), middleware.ExtractMeta(c))
}

// Delete godoc
// @Summary Delete a change record
// @Tags Records
// @Produce json
// @Param id path int true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /records/{id} [delete]
func (h *RecordHandler) Delete(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	session := sessionFromContext(c)
	if session == nil {
		return
	}
	id, ok := recordIDParam(c)
	if !ok {
		return
	}
	result, err := h.service.Delete(c.Request.Context(), id, session.Controller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, result.View.Pagination(), middleware.ExtractMeta(c))
}
