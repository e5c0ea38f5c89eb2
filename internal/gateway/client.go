package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cve-dashboard/internal/models"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
	"github.com/noah-isme/cve-dashboard/pkg/middleware/requestid"
)

const maxErrorBody = 4 << 10

// Observer records gateway call latency by operation and outcome.
type Observer interface {
	ObserveGatewayRequest(operation, outcome string, duration time.Duration)
}

// Spreadsheet is a binary export returned by the gateway.
type Spreadsheet struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// Client talks to the remote change-event data API.
type Client struct {
	baseURL  string
	http     *http.Client
	observer Observer
	logger   *zap.Logger
}

// Option customises the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithObserver attaches a latency observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a gateway client for baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListPage fetches an unfiltered page.
func (c *Client) ListPage(ctx context.Context, pageSize, offset int) (*models.ResultPage, error) {
	q := pageQuery(pageSize, offset)
	page := &models.ResultPage{}
	if err := c.getJSON(ctx, "list_page", "/cvechanges/paginated/", q, page); err != nil {
		return nil, err
	}
	page.Mode = models.ModeBrowse
	return page, nil
}

// SearchPage fetches a page of free-text search results.
func (c *Client) SearchPage(ctx context.Context, query string, pageSize, offset int) (*models.ResultPage, error) {
	q := pageQuery(pageSize, offset)
	q.Set("q", query)
	page := &models.ResultPage{}
	if err := c.getJSON(ctx, "search_page", "/cvechanges/search/", q, page); err != nil {
		return nil, err
	}
	page.Mode = models.ModeSearch
	return page, nil
}

// FilterPage fetches a page narrowed by criteria.
func (c *Client) FilterPage(ctx context.Context, criteria models.FilterCriteria, pageSize, offset int) (*models.ResultPage, error) {
	q := filterQuery(criteria)
	for k, v := range pageQuery(pageSize, offset) {
		q[k] = v
	}
	page := &models.ResultPage{}
	if err := c.getJSON(ctx, "filter_page", "/cvechanges/filter/", q, page); err != nil {
		return nil, err
	}
	page.Mode = models.ModeFilter
	return page, nil
}

// GetRecord fetches a single change record.
func (c *Client) GetRecord(ctx context.Context, id int64) (*models.ChangeRecord, error) {
	record := &models.ChangeRecord{}
	if err := c.getJSON(ctx, "get_record", fmt.Sprintf("/cvechanges/%d/", id), nil, record); err != nil {
		return nil, err
	}
	return record, nil
}

// CreateRecord submits a new change record.
func (c *Client) CreateRecord(ctx context.Context, payload models.ChangeRecordPayload) (*models.ChangeRecord, error) {
	record := &models.ChangeRecord{}
	if err := c.sendJSON(ctx, "create_record", http.MethodPost, "/cvechanges/create/", payload, record); err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateRecord sends the edited fields of a change record.
func (c *Client) UpdateRecord(ctx context.Context, id int64, payload models.ChangeRecordUpdate) (*models.ChangeRecord, error) {
	record := &models.ChangeRecord{}
	if err := c.sendJSON(ctx, "update_record", http.MethodPut, fmt.Sprintf("/cvechanges/update/%d/", id), payload, record); err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteRecord removes a change record.
func (c *Client) DeleteRecord(ctx context.Context, id int64) error {
	return c.sendJSON(ctx, "delete_record", http.MethodDelete, fmt.Sprintf("/cvechanges/delete/%d", id), nil, nil)
}

// ListEventOptions returns the configured event options. Both the wrapped
// {"data": [...]} shape and a bare array are accepted.
func (c *Client) ListEventOptions(ctx context.Context) ([]models.EventOption, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "list_event_options", "/event-options/", nil, &raw); err != nil {
		return nil, err
	}
	return decodeEventOptions(raw)
}

// CreateEventOption registers a new event name.
func (c *Client) CreateEventOption(ctx context.Context, name string) (*models.EventOption, error) {
	option := &models.EventOption{}
	body := map[string]string{"eventName": name}
	if err := c.sendJSON(ctx, "create_event_option", http.MethodPost, "/event-options/", body, option); err != nil {
		return nil, err
	}
	if option.EventName == "" {
		option.EventName = name
	}
	return option, nil
}

// EventCounts fetches the per-event tally.
func (c *Client) EventCounts(ctx context.Context) (*models.EventCounts, error) {
	out := &models.EventCounts{}
	return out, c.getJSON(ctx, "event_counts", "/event-counts/", nil, out)
}

// YearCounts fetches the per-year tally.
func (c *Client) YearCounts(ctx context.Context) (*models.YearCounts, error) {
	out := &models.YearCounts{}
	return out, c.getJSON(ctx, "year_counts", "/cve-year-counts/", nil, out)
}

// TopSources fetches the most active reporting sources.
func (c *Client) TopSources(ctx context.Context) (*models.TopSources, error) {
	out := &models.TopSources{}
	return out, c.getJSON(ctx, "top_sources", "/top-sources/", nil, out)
}

// AnalysisStatus fetches the analysis status tally.
func (c *Client) AnalysisStatus(ctx context.Context) (*models.AnalysisStatus, error) {
	out := &models.AnalysisStatus{}
	return out, c.getJSON(ctx, "analysis_status", "/analysis-status/", nil, out)
}

// MonthlyTrends fetches per-month counts. A zero year lets the gateway choose.
func (c *Client) MonthlyTrends(ctx context.Context, year int) (*models.MonthlyTrends, error) {
	var q url.Values
	if year > 0 {
		q = url.Values{"year": []string{strconv.Itoa(year)}}
	}
	out := &models.MonthlyTrends{}
	return out, c.getJSON(ctx, "monthly_trends", "/monthly-event-trends/", q, out)
}

// Growth fetches the growth-over-time series.
func (c *Client) Growth(ctx context.Context) (*models.Growth, error) {
	out := &models.Growth{}
	return out, c.getJSON(ctx, "growth", "/cvechanges/growth/", nil, out)
}

// DashboardSummary fetches processed counters and status counts.
func (c *Client) DashboardSummary(ctx context.Context) (*models.DashboardSummary, error) {
	out := &models.DashboardSummary{}
	return out, c.getJSON(ctx, "dashboard_summary", "/cvechanges/cve-dashboard/", nil, out)
}

// Export downloads the spreadsheet for the given filter parameters.
func (c *Client) Export(ctx context.Context, criteria models.FilterCriteria) (*Spreadsheet, error) {
	resp, err := c.do(ctx, "export", http.MethodGet, "/cvechanges/export/", filterQuery(criteria), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGatewayUnavailable.Code, appErrors.ErrGatewayUnavailable.Status, "read export body")
	}
	sheet := &Spreadsheet{
		Filename:    filenameFrom(resp.Header.Get("Content-Disposition"), "cve_changes.xlsx"),
		ContentType: resp.Header.Get("Content-Type"),
		Payload:     payload,
	}
	if sheet.ContentType == "" {
		sheet.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return sheet, nil
}

// Ping checks that the gateway answers.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, "ping", http.MethodGet, "/event-options/", nil, nil)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) getJSON(ctx context.Context, op, path string, q url.Values, dest interface{}) error {
	resp, err := c.do(ctx, op, http.MethodGet, path, q, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(op, resp.Body, dest)
}

func (c *Client) sendJSON(ctx context.Context, op, method, path string, payload, dest interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode gateway payload")
		}
		body = bytes.NewReader(raw)
	}
	resp, err := c.do(ctx, op, method, path, nil, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decode(op, resp.Body, dest)
}

// do performs the request and maps transport failures and non-2xx statuses
// to typed errors. The caller owns the body of a successful response.
func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, body io.Reader) (*http.Response, error) {
	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build gateway request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header(), id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(op, "unavailable", duration)
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		c.logger.Warn("gateway request failed", zap.String("operation", op), zap.String("url", endpoint), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrGatewayUnavailable.Code, appErrors.ErrGatewayUnavailable.Status, appErrors.ErrGatewayUnavailable.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.observe(op, strconv.Itoa(resp.StatusCode), duration)
		c.logger.Warn("gateway returned error status",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.String("url", endpoint),
		)
		return nil, statusError(resp.StatusCode, raw)
	}
	c.observe(op, "ok", duration)
	return resp, nil
}

func (c *Client) observe(op, outcome string, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveGatewayRequest(op, outcome, d)
	}
}

func decode(op string, r io.Reader, dest interface{}) error {
	if err := json.NewDecoder(r).Decode(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrGateway.Code, appErrors.ErrGateway.Status, fmt.Sprintf("decode %s response", op))
	}
	return nil
}

func statusError(status int, body []byte) *appErrors.Error {
	message := gatewayMessage(body)
	var base *appErrors.Error
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		base = appErrors.ErrValidation
	case http.StatusNotFound:
		base = appErrors.ErrNotFound
	case http.StatusConflict:
		base = appErrors.ErrConflict
	default:
		base = appErrors.ErrGateway
		if message == "" {
			message = fmt.Sprintf("data gateway responded with status %d", status)
		}
	}
	return appErrors.Clone(base, message)
}

// gatewayMessage extracts a human message from common error body shapes.
func gatewayMessage(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"error", "detail", "message"} {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	for key, v := range payload {
		if list, ok := v.([]interface{}); ok && len(list) > 0 {
			if s, ok := list[0].(string); ok {
				return key + ": " + s
			}
		}
	}
	return ""
}

func decodeEventOptions(raw json.RawMessage) ([]models.EventOption, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []models.EventOption{}, nil
	}
	var options []models.EventOption
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &options); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrGateway.Code, appErrors.ErrGateway.Status, "decode event options")
		}
		return options, nil
	}
	var wrapped struct {
		Data []models.EventOption `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGateway.Code, appErrors.ErrGateway.Status, "decode event options")
	}
	if wrapped.Data == nil {
		return []models.EventOption{}, nil
	}
	return wrapped.Data, nil
}

func pageQuery(pageSize, offset int) url.Values {
	return url.Values{
		"resultsPerPage": []string{strconv.Itoa(pageSize)},
		"startIndex":     []string{strconv.Itoa(offset)},
	}
}

func filterQuery(criteria models.FilterCriteria) url.Values {
	q := url.Values{}
	for _, ev := range criteria.Events {
		q.Add("events", ev)
	}
	if criteria.StartDate != "" {
		q.Set("startDate", criteria.StartDate)
	}
	if criteria.EndDate != "" {
		q.Set("endDate", criteria.EndDate)
	}
	return q
}

func filenameFrom(disposition, fallback string) string {
	if disposition == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return fallback
	}
	name := path.Base(strings.ReplaceAll(params["filename"], `\`, "/"))
	if name == "" || name == "." || name == "/" {
		return fallback
	}
	return name
}
