package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cve-dashboard/internal/middleware"
	"github.com/noah-isme/cve-dashboard/internal/models"
	"github.com/noah-isme/cve-dashboard/internal/service"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
	"github.com/noah-isme/cve-dashboard/pkg/response"
)

type spreadsheetService interface {
	GatewaySpreadsheet(ctx context.Context, criteria models.FilterCriteria) (*service.ExportFile, error)
}

// ExportHandler streams the gateway's spreadsheet export.
type ExportHandler struct {
	service spreadsheetService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service spreadsheetService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Download godoc
// @Summary Download change records as a spreadsheet
// @Description Without filter parameters the session's active filter is used.
// @Tags Export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param events query []string false "Event names" collectionFormat(multi)
// @Param startDate query string false "Start date (YYYY-MM-DD)"
// @Param endDate query string false "End date (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /export [get]
func (h *ExportHandler) Download(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	criteria := models.FilterCriteria{
		Events:    queryList(c, "events"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	}
	if criteria.IsEmpty() {
		if session := middleware.CurrentSession(c); session != nil && session.Controller != nil {
			if mode := session.Controller.Mode(); mode.Kind == models.ModeFilter {
				criteria = mode.Criteria
			}
		}
	}
	file, err := h.service.GatewaySpreadsheet(c.Request.Context(), criteria)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
