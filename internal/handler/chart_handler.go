package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cve-dashboard/internal/dto"
	"github.com/noah-isme/cve-dashboard/internal/middleware"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
	"github.com/noah-isme/cve-dashboard/pkg/response"
)

type chartService interface {
	EventCounts(ctx context.Context) (*dto.ChartDataset, bool, error)
	YearCounts(ctx context.Context) (*dto.ChartDataset, bool, error)
	TopSources(ctx context.Context) (*dto.ChartDataset, bool, error)
	AnalysisStatus(ctx context.Context) (*dto.ChartDataset, bool, error)
	MonthlyTrends(ctx context.Context, year int) (*dto.ChartDataset, bool, error)
	Growth(ctx context.Context) (*dto.ChartDataset, bool, error)
	Summary(ctx context.Context) (*dto.SummaryCharts, bool, error)
}

// ChartHandler serves chart-ready aggregate datasets.
type ChartHandler struct {
	service chartService
}

// NewChartHandler constructs the handler.
func NewChartHandler(service chartService) *ChartHandler {
	return &ChartHandler{service: service}
}

// EventCounts godoc
// @Summary Records per event name
// @Tags Charts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /charts/event-counts [get]
func (h *ChartHandler) EventCounts(c *gin.Context) {
	h.serve(c, chartService.EventCounts)
}

// YearCounts godoc
// @Summary CVEs per year
// @Tags Charts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /charts/year-counts [get]
func (h *ChartHandler) YearCounts(c *gin.Context) {
	h.serve(c, chartService.YearCounts)
}

// TopSources godoc
// @Summary Most active source identifiers
// @Tags Charts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /charts/top-sources [get]
func (h *ChartHandler) TopSources(c *gin.Context) {
	h.serve(c, chartService.TopSources)
}

// AnalysisStatus godoc
// @Summary Analysis status distribution
// @Tags Charts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /charts/analysis-status [get]
func (h *ChartHandler) AnalysisStatus(c *gin.Context) {
	h.serve(c, chartService.AnalysisStatus)
}

// Growth godoc
// @Summary Cumulative growth over time
// @Tags Charts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /charts/growth [get]
func (h *ChartHandler) Growth(c *gin.Context) {
	h.serve(c, chartService.Growth)
}

// MonthlyTrends godoc
// @Summary Monthly event trends
// @Tags Charts
// @Produce json
// @Param year query int false "Year, defaults to the gateway's latest"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /charts/monthly-trends [get]
func (h *ChartHandler) MonthlyTrends(c *gin.Context) {
	year := 0
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "invalid year"),
				map[string]string{"year": "Year must be a number."}))
			return
		}
		year = parsed
	}
	h.serve(c, func(s chartService, ctx context.Context) (*dto.ChartDataset, bool, error) {
		return s.MonthlyTrends(ctx, year)
	})
}

// Summary godoc
// @Summary Processed counters and status totals
// @Tags Charts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /charts/summary [get]
func (h *ChartHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	charts, cacheHit, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, charts, nil, middleware.ExtractMeta(c))
}

func (h *ChartHandler) serve(c *gin.Context, load func(s chartService, ctx context.Context) (*dto.ChartDataset, bool, error)) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	dataset, cacheHit, err := load(h.service, c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, dataset, nil, middleware.ExtractMeta(c))
}
