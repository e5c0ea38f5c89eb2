package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cve-dashboard/internal/dto"
	"github.com/noah-isme/cve-dashboard/internal/models"
	"github.com/noah-isme/cve-dashboard/internal/service"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
	"github.com/noah-isme/cve-dashboard/pkg/response"
)

type viewRenderer interface {
	RenderView(view dto.ResultView, format string) (*service.ExportFile, error)
}

// ViewHandler exposes the session's result-set controller.
type ViewHandler struct {
	renderer viewRenderer
}

// NewViewHandler constructs the handler.
func NewViewHandler(renderer viewRenderer) *ViewHandler {
	return &ViewHandler{renderer: renderer}
}

// Get godoc
// @Summary Current table view
// @Tags View
// @Produce json
// @Param X-Session-ID header string false "Session ID"
// @Success 200 {object} response.Envelope
// @Router /view [get]
func (h *ViewHandler) Get(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		return
	}
	writeView(c, http.StatusOK, session.Controller.View())
}

// SetMode godoc
// @Summary Switch between browse, search and filter
// @Tags View
// @Accept json
// @Produce json
// @Param payload body dto.ModeRequest true "Mode"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /view/mode [post]
func (h *ViewHandler) SetMode(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		return
	}
	var req dto.ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, "mode")
		return
	}
	mode := models.Mode{
		Kind:  req.Mode,
		Query: req.Query,
		Criteria: models.FilterCriteria{
			Events:    req.Events,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		},
	}
	view, err := session.Controller.SetMode(c.Request.Context(), mode)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeView(c, http.StatusOK, view)
}

// FetchPage godoc
// @Summary Load a page of the current mode
// @Tags View
// @Accept json
// @Produce json
// @Param payload body dto.PageRequest true "Page index"
// @Success 200 {object} response.Envelope
// @Router /view/page [post]
func (h *ViewHandler) FetchPage(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		return
	}
	var req dto.PageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PageIndex == nil {
		response.Error(c, appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "pageIndex is required"),
			map[string]string{"pageIndex": "Page index is required."}))
		return
	}
	view, err := session.Controller.FetchPage(c.Request.Context(), *req.PageIndex)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeView(c, http.StatusOK, view)
}

// SetPageSize godoc
// @Summary Change rows per page
// @Tags View
// @Accept json
// @Produce json
// @Param payload body dto.PageSizeRequest true "Page size"
// @Success 200 {object} response.Envelope
// @Router /view/page-size [post]
func (h *ViewHandler) SetPageSize(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		return
	}
	var req dto.PageSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, "page size")
		return
	}
	view, err := session.Controller.SetPageSize(c.Request.Context(), req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeView(c, http.StatusOK, view)
}

// SetSort godoc
// @Summary Advance the sort cycle of a column
// @Tags View
// @Accept json
// @Produce json
// @Param payload body dto.SortRequest true "Column"
// @Success 200 {object} response.Envelope
// @Router /view/sort [post]
func (h *ViewHandler) SetSort(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		return
	}
	var req dto.SortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, "sort")
		return
	}
	view, err := session.Controller.SetSort(req.Column)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeView(c, http.StatusOK, view)
}

// ApplyTextFilter godoc
// @Summary Filter the held page by substring
// @Tags View
// @Accept json
// @Produce json
// @Param payload body dto.TextFilterRequest true "Filter"
// @Success 200 {object} response.Envelope
// @Router /view/text-filter [post]
func (h *ViewHandler) ApplyTextFilter(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		return
	}
	var req dto.TextFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, "text filter")
		return
	}
	writeView(c, http.StatusOK, session.Controller.ApplyTextFilter(req.Filter))
}

// Refresh godoc
// @Summary Re-fetch the current page
// @Tags View
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /view/refresh [post]
func (h *ViewHandler) Refresh(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		return
	}
	view, err := session.Controller.Refresh(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	writeView(c, http.StatusOK, view)
}

// DismissError godoc
// @Summary Clear the transient error message
// @Tags View
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /view/error [delete]
func (h *ViewHandler) DismissError(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		return
	}
	writeView(c, http.StatusOK, session.Controller.DismissError())
}

// Export godoc
// @Summary Download the visible rows
// @Tags View
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /view/export [get]
func (h *ViewHandler) Export(c *gin.Context) {
	if h.renderer == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export not configured"))
		return
	}
	session := sessionFromContext(c)
	if session == nil {
		return
	}
	file, err := h.renderer.RenderView(session.Controller.View(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
