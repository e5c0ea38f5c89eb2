package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cve-dashboard/internal/models"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
	"github.com/noah-isme/cve-dashboard/pkg/middleware/requestid"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string]string
}

func (o *recordingObserver) ObserveGatewayRequest(op, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = map[string]string{}
	}
	o.outcomes[op] = outcome
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", time.Second, opts...)
}

func TestListPageSendsOffset(t *testing.T) {
	var gotPath, gotSize, gotStart string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSize = r.URL.Query().Get("resultsPerPage")
		gotStart = r.URL.Query().Get("startIndex")
		_ = json.NewEncoder(w).Encode(models.ResultPage{
			ResultsPerPage: 10,
			StartIndex:     20,
			TotalResults:   25,
			Data:           []models.ChangeRecord{{ID: 21, CveID: "CVE-2024-0021"}},
		})
	})

	page, err := client.ListPage(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.Equal(t, "/api/cvechanges/paginated/", gotPath)
	assert.Equal(t, "10", gotSize)
	assert.Equal(t, "20", gotStart)
	assert.Equal(t, models.ModeBrowse, page.Mode)
	assert.Equal(t, 25, page.TotalResults)
	require.Len(t, page.Data, 1)
}

func TestListPageKeepsFreeFormDetails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resultsPerPage":10,"startIndex":0,"totalResults":1,"data":[
			{"id":1,"cveId":"CVE-2024-0001","details":[
				{"type":"CVSS","action":"Changed","oldValue":7.5,"newValue":{"score":9.8},"source":"nvd"}
			]}
		]}`))
	})

	page, err := client.ListPage(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.Len(t, page.Data[0].Details, 1)
	detail := page.Data[0].Details[0]
	assert.Equal(t, "7.5", detail.Text("oldValue"))
	assert.JSONEq(t, `{"score":9.8}`, string(detail["newValue"]))
	assert.Equal(t, "nvd", detail.Text("source"))
}

func TestUpdateRecordOmitsUnsetFields(t *testing.T) {
	var body map[string]json.RawMessage
	var path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.Method + " " + r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"id":5,"cveId":"CVE-2024-0005","eventName":"CVE Received"}`))
	})

	record, err := client.UpdateRecord(context.Background(), 5, models.ChangeRecordUpdate{
		CveID:            "CVE-2024-0005",
		SourceIdentifier: "cve@mitre.org",
		Created:          "2024-02-02",
	})
	require.NoError(t, err)
	assert.Equal(t, "PUT /api/cvechanges/update/5/", path)
	assert.Equal(t, "CVE Received", record.EventName)
	assert.NotContains(t, body, "eventName")
	assert.NotContains(t, body, "cveChangeId")
	assert.NotContains(t, body, "details")
	assert.Contains(t, body, "cveId")
}

func TestFilterPageRepeatsEvents(t *testing.T) {
	var query map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_, _ = w.Write([]byte(`{"resultsPerPage":100,"startIndex":0,"totalResults":0,"data":[]}`))
	})

	criteria := models.FilterCriteria{Events: []string{"CVE Received", "Reanalysis"}, StartDate: "2024-01-01", EndDate: "2024-01-01"}
	page, err := client.FilterPage(context.Background(), criteria, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, models.ModeFilter, page.Mode)
	assert.Equal(t, []string{"CVE Received", "Reanalysis"}, query["events"])
	assert.Equal(t, []string{"2024-01-01"}, query["startDate"])
	assert.Equal(t, []string{"2024-01-01"}, query["endDate"])
	assert.Equal(t, []string{"0"}, query["startIndex"])
}

func TestSearchPageSendsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cvechanges/search/", r.URL.Path)
		assert.Equal(t, "CVE-2024", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"totalResults":1,"data":[{"id":1,"cveId":"CVE-2024-1"}]}`))
	})

	page, err := client.SearchPage(context.Background(), "CVE-2024", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, models.ModeSearch, page.Mode)
	assert.Equal(t, "CVE-2024-1", page.Data[0].CveID)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   *appErrors.Error
		msg    string
	}{
		{http.StatusBadRequest, `{"cveId":["This field is required."]}`, appErrors.ErrValidation, "cveId: This field is required."},
		{http.StatusUnprocessableEntity, `{"detail":"bad details"}`, appErrors.ErrValidation, "bad details"},
		{http.StatusNotFound, `{"error":"missing"}`, appErrors.ErrNotFound, "missing"},
		{http.StatusConflict, `{"error":"Event option already exists"}`, appErrors.ErrConflict, "Event option already exists"},
		{http.StatusInternalServerError, `oops`, appErrors.ErrGateway, "data gateway responded with status 500"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := client.GetRecord(context.Background(), 7)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.msg, appErrors.FromError(err).Message)
		})
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	obs := &recordingObserver{}
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(url, 200*time.Millisecond, WithObserver(obs))
	_, err := client.ListPage(context.Background(), 10, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrGatewayUnavailable)
	assert.Equal(t, "unavailable", obs.outcomes["list_page"])
}

func TestEventOptionShapes(t *testing.T) {
	for name, body := range map[string]string{
		"wrapped": `{"data":[{"id":1,"eventName":"CVE Received"}]}`,
		"bare":    `[{"id":1,"eventName":"CVE Received"}]`,
	} {
		body := body
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			options, err := client.ListEventOptions(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []models.EventOption{{ID: 1, EventName: "CVE Received"}}, options)
		})
	}
}

func TestCreateAndDeleteRecord(t *testing.T) {
	var methods []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodPost:
			var payload models.ChangeRecordPayload
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(models.ChangeRecord{ID: 99, CveID: payload.CveID, Details: payload.Details})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})

	created, err := client.CreateRecord(context.Background(), models.ChangeRecordPayload{
		CveID:   "CVE-2024-9999",
		Details: []models.ChangeDetail{{"type": json.RawMessage(`"CVSS"`), "newValue": json.RawMessage(`9.8`)}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(99), created.ID)
	assert.Equal(t, "9.8", created.Details[0].Text("newValue"))

	require.NoError(t, client.DeleteRecord(context.Background(), 99))
	assert.Equal(t, []string{"POST /api/cvechanges/create/", "DELETE /api/cvechanges/delete/99"}, methods)
}

func TestExportReturnsSpreadsheet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cvechanges/export/", r.URL.Path)
		assert.Equal(t, "CWE Remap", r.URL.Query().Get("events"))
		w.Header().Set("Content-Type", "application/vnd.ms-excel")
		w.Header().Set("Content-Disposition", `attachment; filename="changes_2024.xlsx"`)
		_, _ = w.Write([]byte("PK\x03\x04sheet"))
	})

	sheet, err := client.Export(context.Background(), models.FilterCriteria{Events: []string{"CWE Remap"}})
	require.NoError(t, err)
	assert.Equal(t, "changes_2024.xlsx", sheet.Filename)
	assert.Equal(t, "application/vnd.ms-excel", sheet.ContentType)
	assert.Equal(t, []byte("PK\x03\x04sheet"), sheet.Payload)
}

func TestMonthlyTrendsYearParam(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2023", r.URL.Query().Get("year"))
		_, _ = w.Write([]byte(`{"year":2023,"events":[{"eventName":"CVE Received","monthly":[1,2,3]}]}`))
	})

	trends, err := client.MonthlyTrends(context.Background(), 2023)
	require.NoError(t, err)
	assert.Equal(t, 2023, trends.Year)
	assert.Equal(t, []int{1, 2, 3}, trends.Events[0].Monthly)
}

func TestFilenameFrom(t *testing.T) {
	assert.Equal(t, "a.xlsx", filenameFrom(`attachment; filename="a.xlsx"; size=3`, "x"))
	assert.Equal(t, "x", filenameFrom("", "x"))
	assert.Equal(t, "cve changes.xlsx", filenameFrom(`attachment; filename*=UTF-8''cve%20changes.xlsx`, "x"))
	assert.Equal(t, "a;b.xlsx", filenameFrom(`attachment; filename="a;b.xlsx"`, "x"))
	assert.Equal(t, "report.xlsx", filenameFrom(`attachment; filename="../../etc/report.xlsx"`, "x"))
	assert.Equal(t, "x", filenameFrom(`attachment; filename=""`, "x"))
	assert.Equal(t, "x", filenameFrom(`attachment`, "x"))
}

func TestRequestIDForwarded(t *testing.T) {
	var got string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`[]`))
	})

	ctx := requestid.WithContext(context.Background(), "req-42")
	require.NoError(t, client.Ping(ctx))
	assert.Equal(t, "req-42", got)
}
