package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cve-dashboard/internal/dto"
	"github.com/noah-isme/cve-dashboard/internal/models"
	"github.com/noah-isme/cve-dashboard/internal/service"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
)

type fakeRenderer struct {
	view   dto.ResultView
	format string
}

func (f *fakeRenderer) RenderView(view dto.ResultView, format string) (*service.ExportFile, error) {
	f.view = view
	f.format = format
	if format == "xls" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	return &service.ExportFile{Filename: "rows.csv", ContentType: "text/csv", Payload: []byte("a,b\n")}, nil
}

func TestViewHandlerRequiresSession(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/view", "", nil)

	NewViewHandler(nil).Get(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestViewHandlerPagination(t *testing.T) {
	session := newTestSession(&stubPages{total: 25})
	handler := NewViewHandler(nil)

	c, rec := newContext(http.MethodPost, "/view/page", `{"pageIndex":2}`, session)
	handler.FetchPage(c)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(20), envelope.Data["startIndex"])
	assert.Len(t, envelope.Data["rows"], 5)
	assert.Equal(t, float64(3), envelope.Pagination["pageCount"])
	assert.Equal(t, float64(5), envelope.Pagination["visibleCount"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
}

func TestViewHandlerFetchPageRequiresIndex(t *testing.T) {
	session := newTestSession(&stubPages{total: 25})

	c, rec := newContext(http.MethodPost, "/view/page", `{}`, session)
	NewViewHandler(nil).FetchPage(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error["code"])
}

func TestViewHandlerSetModeFilterValidation(t *testing.T) {
	source := &stubPages{total: 3}
	session := newTestSession(source)

	c, rec := newContext(http.MethodPost, "/view/mode", `{"mode":"filter","endDate":"2024-01-02"}`, session)
	NewViewHandler(nil).SetMode(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	fields, _ := envelope.Error["fields"].(map[string]interface{})
	assert.Contains(t, fields, "endDate")
	assert.Empty(t, source.modes)
}

func TestViewHandlerSetModeFilter(t *testing.T) {
	source := &stubPages{total: 3}
	session := newTestSession(source)

	body := `{"mode":"filter","events":["CVE Received"],"startDate":"2024-01-01"}`
	c, rec := newContext(http.MethodPost, "/view/mode", body, session)
	NewViewHandler(nil).SetMode(c)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "filter", envelope.Data["mode"])
	assert.Equal(t, float64(3), envelope.Data["appliedFilterCount"])
	assert.Equal(t, "2024-01-01", source.criteria.EndDate)
}

func TestViewHandlerGatewayFailureKeepsMessage(t *testing.T) {
	source := &stubPages{total: 3, err: appErrors.Clone(appErrors.ErrGatewayUnavailable, "Network error")}
	session := newTestSession(source)
	handler := NewViewHandler(nil)

	c, rec := newContext(http.MethodPost, "/view/refresh", "", session)
	handler.Refresh(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	c, rec = newContext(http.MethodGet, "/view", "", session)
	handler.Get(c)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "Network error", envelope.Data["errorMessage"])
	assert.Equal(t, false, envelope.Data["isLoading"])

	c, rec = newContext(http.MethodDelete, "/view/error", "", session)
	handler.DismissError(c)
	envelope = decodeEnvelope(t, rec)
	assert.NotContains(t, envelope.Data, "errorMessage")
}

func TestViewHandlerSortAndTextFilter(t *testing.T) {
	session := newTestSession(&stubPages{total: 12})
	handler := NewViewHandler(nil)
	_, err := session.Controller.Refresh(context.Background())
	require.NoError(t, err)

	c, rec := newContext(http.MethodPost, "/view/sort", `{"column":"id"}`, session)
	handler.SetSort(c)
	envelope := decodeEnvelope(t, rec)
	sortSpec, _ := envelope.Data["sort"].(map[string]interface{})
	assert.Equal(t, string(models.DirectionAsc), sortSpec["direction"])

	c, rec = newContext(http.MethodPost, "/view/sort", `{"column":"details"}`, session)
	handler.SetSort(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newContext(http.MethodPost, "/view/text-filter", `{"filter":"cve-2024-001"}`, session)
	handler.ApplyTextFilter(c)
	envelope = decodeEnvelope(t, rec)
	assert.Len(t, envelope.Data["rows"], 3)
}

func TestViewHandlerPageSizeValidation(t *testing.T) {
	session := newTestSession(&stubPages{total: 12})

	c, rec := newContext(http.MethodPost, "/view/page-size", `{"pageSize":7}`, session)
	NewViewHandler(nil).SetPageSize(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestViewHandlerExport(t *testing.T) {
	session := newTestSession(&stubPages{total: 12})
	renderer := &fakeRenderer{}
	handler := NewViewHandler(renderer)

	c, rec := newContext(http.MethodGet, "/view/export?format=csv", "", session)
	handler.Export(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", renderer.format)
	assert.True(t, strings.Contains(rec.Header().Get("Content-Disposition"), "rows.csv"))

	c, rec = newContext(http.MethodGet, "/view/export?format=xls", "", session)
	handler.Export(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
