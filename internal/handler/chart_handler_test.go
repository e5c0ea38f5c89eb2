package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cve-dashboard/internal/dto"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
)

type fakeChartSrv struct {
	hit      bool
	err      error
	lastYear int
}

func (f *fakeChartSrv) dataset(title string) (*dto.ChartDataset, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return &dto.ChartDataset{Kind: dto.ChartPie, Title: title}, f.hit, nil
}

func (f *fakeChartSrv) EventCounts(context.Context) (*dto.ChartDataset, bool, error) {
	return f.dataset("Event counts")
}

func (f *fakeChartSrv) YearCounts(context.Context) (*dto.ChartDataset, bool, error) {
	return f.dataset("Year counts")
}

func (f *fakeChartSrv) TopSources(context.Context) (*dto.ChartDataset, bool, error) {
	return f.dataset("Top sources")
}

func (f *fakeChartSrv) AnalysisStatus(context.Context) (*dto.ChartDataset, bool, error) {
	return f.dataset("Analysis status")
}

func (f *fakeChartSrv) MonthlyTrends(_ context.Context, year int) (*dto.ChartDataset, bool, error) {
	f.lastYear = year
	return f.dataset("Monthly trends")
}

func (f *fakeChartSrv) Growth(context.Context) (*dto.ChartDataset, bool, error) {
	return f.dataset("Growth")
}

func (f *fakeChartSrv) Summary(context.Context) (*dto.SummaryCharts, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return &dto.SummaryCharts{Processed: dto.ChartDataset{Kind: dto.ChartTable}}, f.hit, nil
}

func TestChartHandlerCacheHitMeta(t *testing.T) {
	handler := NewChartHandler(&fakeChartSrv{hit: true})

	c, rec := newContext(http.MethodGet, "/charts/event-counts", "", nil)
	handler.EventCounts(c)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, "Event counts", envelope.Data["title"])
}

func TestChartHandlerMonthlyTrendsYear(t *testing.T) {
	srv := &fakeChartSrv{}
	handler := NewChartHandler(srv)

	c, rec := newContext(http.MethodGet, "/charts/monthly-trends?year=2023", "", nil)
	handler.MonthlyTrends(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2023, srv.lastYear)

	c, rec = newContext(http.MethodGet, "/charts/monthly-trends?year=abc", "", nil)
	handler.MonthlyTrends(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChartHandlerGatewayError(t *testing.T) {
	handler := NewChartHandler(&fakeChartSrv{err: appErrors.ErrGateway})

	c, rec := newContext(http.MethodGet, "/charts/summary", "", nil)
	handler.Summary(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestChartHandlerNilService(t *testing.T) {
	handler := NewChartHandler(nil)

	c, rec := newContext(http.MethodGet, "/charts/growth", "", nil)
	handler.Growth(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
