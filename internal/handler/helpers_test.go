package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cve-dashboard/internal/middleware"
	"github.com/noah-isme/cve-dashboard/internal/models"
	"github.com/noah-isme/cve-dashboard/internal/service"
)

type responseEnvelope struct {
	Data       map[string]interface{} `json:"data"`
	Error      map[string]interface{} `json:"error"`
	Pagination map[string]interface{} `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

// stubPages serves total synthetic records for every mode.
type stubPages struct {
	mu       sync.Mutex
	total    int
	err      error
	modes    []models.ModeKind
	criteria models.FilterCriteria
}

func (s *stubPages) page(mode models.ModeKind, size, offset int) (*models.ResultPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes = append(s.modes, mode)
	if s.err != nil {
		return nil, s.err
	}
	page := &models.ResultPage{ResultsPerPage: size, StartIndex: offset, TotalResults: s.total, Mode: mode}
	for i := offset; i < s.total && i < offset+size; i++ {
		page.Data = append(page.Data, models.ChangeRecord{
			ID:        int64(i + 1),
			CveID:     fmt.Sprintf("CVE-2024-%04d", i+1),
			EventName: "CVE Received",
			Created:   "2024-01-01T00:00:00",
		})
	}
	return page, nil
}

func (s *stubPages) ListPage(_ context.Context, size, offset int) (*models.ResultPage, error) {
	return s.page(models.ModeBrowse, size, offset)
}

func (s *stubPages) SearchPage(_ context.Context, _ string, size, offset int) (*models.ResultPage, error) {
	return s.page(models.ModeSearch, size, offset)
}

func (s *stubPages) FilterPage(_ context.Context, criteria models.FilterCriteria, size, offset int) (*models.ResultPage, error) {
	s.mu.Lock()
	s.criteria = criteria
	s.mu.Unlock()
	return s.page(models.ModeFilter, size, offset)
}

func newTestSession(source service.PageSource) *service.Session {
	return &service.Session{
		ID: "test",
		Controller: service.NewResultSetController(source, nil, nil, service.ResultSetConfig{
			DefaultPageSize: 10,
			PageSizeOptions: []int{10, 25, 50},
		}),
		Suggestions: service.NewDebouncer(0),
	}
}

func newContext(method, target, body string, session *service.Session) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	if session != nil {
		middleware.WithSession(c, session)
	}
	return c, rec
}
