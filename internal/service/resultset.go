package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cve-dashboard/internal/dto"
	"github.com/noah-isme/cve-dashboard/internal/models"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
)

// PageSource fetches result pages for each data source mode.
type PageSource interface {
	ListPage(ctx context.Context, pageSize, offset int) (*models.ResultPage, error)
	SearchPage(ctx context.Context, query string, pageSize, offset int) (*models.ResultPage, error)
	FilterPage(ctx context.Context, criteria models.FilterCriteria, pageSize, offset int) (*models.ResultPage, error)
}

type staleResponseRecorder interface {
	RecordStaleResponse(mode string)
}

// DefaultPageSizeOptions are the selectable page sizes.
var DefaultPageSizeOptions = []int{10, 25, 50, 100, 500}

// ResultSetConfig tunes a controller.
type ResultSetConfig struct {
	DefaultPageSize int
	PageSizeOptions []int
}

// ResultSetController owns the current table view of one browser session:
// the active mode, paging, sort, local text filter and last fetched page.
// Every fetch takes a new sequence token; a response is applied only while
// its token is the latest issued.
type ResultSetController struct {
	source  PageSource
	metrics staleResponseRecorder
	logger  *zap.Logger
	now     func() time.Time
	options []int

	mu           sync.Mutex
	mode         models.Mode
	pageIndex    int
	pageSize     int
	sort         models.SortSpec
	textFilter   string
	lastPage     *models.ResultPage
	loading      bool
	errorMessage string
	fetchedAt    time.Time
	seq          uint64
}

// NewResultSetController constructs a controller in browse mode without fetching.
func NewResultSetController(source PageSource, metrics staleResponseRecorder, logger *zap.Logger, cfg ResultSetConfig) *ResultSetController {
	if logger == nil {
		logger = zap.NewNop()
	}
	options := cfg.PageSizeOptions
	if len(options) == 0 {
		options = DefaultPageSizeOptions
	}
	pageSize := cfg.DefaultPageSize
	if !containsSize(options, pageSize) {
		pageSize = options[0]
		if containsSize(options, 100) {
			pageSize = 100
		}
	}
	return &ResultSetController{
		source:   source,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		options:  append([]int(nil), options...),
		mode:     models.BrowseMode(),
		pageSize: pageSize,
	}
}

// SetMode replaces the data source, resets paging and sort and fetches page zero.
// Filter criteria are normalised and validated before any state changes.
func (c *ResultSetController) SetMode(ctx context.Context, mode models.Mode) (dto.ResultView, error) {
	switch mode.Kind {
	case models.ModeSearch:
		mode = models.SearchMode(mode.Query)
	case models.ModeFilter:
		criteria, fields := mode.Criteria.Normalize(c.now())
		if fields != nil {
			return c.View(), appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "invalid filter criteria"), fields)
		}
		mode = models.FilterMode(criteria)
	case models.ModeBrowse, "":
		mode = models.BrowseMode()
	default:
		return c.View(), appErrors.Clone(appErrors.ErrValidation, "unknown mode "+string(mode.Kind))
	}

	c.mu.Lock()
	c.mode = mode
	c.pageIndex = 0
	c.sort = models.SortSpec{}
	c.mu.Unlock()

	return c.fetch(ctx)
}

// FetchPage loads pageIndex in the current mode.
func (c *ResultSetController) FetchPage(ctx context.Context, pageIndex int) (dto.ResultView, error) {
	if pageIndex < 0 {
		return c.View(), appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "invalid page index"),
			map[string]string{"pageIndex": "Page index must not be negative."})
	}
	c.mu.Lock()
	c.pageIndex = pageIndex
	c.mu.Unlock()
	return c.fetch(ctx)
}

// SetPageSize changes the page size, resets to page zero and fetches.
func (c *ResultSetController) SetPageSize(ctx context.Context, size int) (dto.ResultView, error) {
	if !containsSize(c.options, size) {
		return c.View(), appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "unsupported page size"),
			map[string]string{"pageSize": "Page size must be one of the offered options."})
	}
	c.mu.Lock()
	c.pageSize = size
	c.pageIndex = 0
	c.mu.Unlock()
	return c.fetch(ctx)
}

// Refresh re-fetches the current page in the current mode.
func (c *ResultSetController) Refresh(ctx context.Context) (dto.ResultView, error) {
	return c.fetch(ctx)
}

// SetSort advances the sort cycle for column. The held page is re-ordered locally.
func (c *ResultSetController) SetSort(column string) (dto.ResultView, error) {
	col, ok := models.ParseSortColumn(column)
	if !ok {
		return c.View(), appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "column is not sortable"),
			map[string]string{"column": "Unknown or unsortable column " + column + "."})
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = c.sort.Next(col)
	return c.viewLocked(), nil
}

// ApplyTextFilter narrows the held page by case-insensitive substring.
func (c *ResultSetController) ApplyTextFilter(substring string) dto.ResultView {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.textFilter = substring
	return c.viewLocked()
}

// DismissError clears the transient error message.
func (c *ResultSetController) DismissError() dto.ResultView {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorMessage = ""
	return c.viewLocked()
}

// View returns a snapshot of the current state and derived rows.
func (c *ResultSetController) View() dto.ResultView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Mode returns the active mode.
func (c *ResultSetController) Mode() models.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *ResultSetController) fetch(ctx context.Context) (dto.ResultView, error) {
	c.mu.Lock()
	c.seq++
	token := c.seq
	mode := c.mode
	size := c.pageSize
	offset := c.pageIndex * c.pageSize
	c.loading = true
	c.mu.Unlock()

	page, err := c.load(ctx, mode, size, offset)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.seq {
		if c.metrics != nil {
			c.metrics.RecordStaleResponse(string(mode.Kind))
		}
		c.logger.Debug("discarded stale page response",
			zap.String("mode", string(mode.Kind)),
			zap.Uint64("token", token),
			zap.Uint64("latest", c.seq),
		)
		return c.viewLocked(), nil
	}

	c.loading = false
	if err != nil {
		appErr := appErrors.FromError(err)
		c.errorMessage = appErr.Message
		c.logger.Error("page fetch failed",
			zap.String("mode", string(mode.Kind)),
			zap.Int("page_size", size),
			zap.Int("offset", offset),
			zap.Error(err),
		)
		return c.viewLocked(), err
	}

	held := models.ResultPage{}
	if page != nil {
		held = *page
	}
	held.Mode = mode.Kind
	c.lastPage = &held
	c.errorMessage = ""
	c.fetchedAt = c.now().UTC()
	return c.viewLocked(), nil
}

func (c *ResultSetController) load(ctx context.Context, mode models.Mode, size, offset int) (*models.ResultPage, error) {
	if c.source == nil {
		return nil, appErrors.Clone(appErrors.ErrGatewayUnavailable, "data gateway not configured")
	}
	switch mode.Kind {
	case models.ModeSearch:
		return c.source.SearchPage(ctx, mode.Query, size, offset)
	case models.ModeFilter:
		return c.source.FilterPage(ctx, mode.Criteria, size, offset)
	default:
		return c.source.ListPage(ctx, size, offset)
	}
}

func (c *ResultSetController) viewLocked() dto.ResultView {
	view := dto.ResultView{
		Mode:            c.mode.Kind,
		PageIndex:       c.pageIndex,
		PageSize:        c.pageSize,
		PageSizeOptions: append([]int(nil), c.options...),
		PageCount:       1,
		StartIndex:      c.pageIndex * c.pageSize,
		Sort:            c.sort,
		TextFilter:      c.textFilter,
		IsLoading:       c.loading,
		ErrorMessage:    c.errorMessage,
		Rows:            []models.ChangeRecord{},
	}
	switch c.mode.Kind {
	case models.ModeSearch:
		view.Query = c.mode.Query
	case models.ModeFilter:
		criteria := c.mode.Criteria
		view.Criteria = &criteria
		view.AppliedFilterCount = criteria.AppliedCount()
	}
	if c.lastPage != nil {
		view.RowsMode = c.lastPage.Mode
		view.TotalResults = c.lastPage.TotalResults
		view.PageCount = models.PageCount(c.lastPage.TotalResults, c.pageSize)
		view.StartIndex = c.lastPage.StartIndex
		view.Rows = SortRecords(FilterRecords(c.lastPage.Data, c.textFilter), c.sort)
		fetched := c.fetchedAt
		view.FetchedAt = &fetched
	}
	view.VisibleCount = len(view.Rows)
	return view
}

func containsSize(options []int, size int) bool {
	for _, o := range options {
		if o == size {
			return true
		}
	}
	return false
}
