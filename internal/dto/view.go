package dto

import (
	"time"

	"github.com/noah-isme/cve-dashboard/internal/models"
)

// ResultView is a snapshot of a session's table state and derived rows.
// RowsMode names the mode the held rows were fetched in; it differs from Mode
// after a mode switch whose fetch failed.
type ResultView struct {
	Mode               models.ModeKind        `json:"mode"`
	RowsMode           models.ModeKind        `json:"rowsMode,omitempty"`
	Query              string                 `json:"query,omitempty"`
	Criteria           *models.FilterCriteria `json:"criteria,omitempty"`
	AppliedFilterCount int                    `json:"appliedFilterCount"`
	PageIndex          int                    `json:"pageIndex"`
	PageSize           int                    `json:"pageSize"`
	PageSizeOptions    []int                  `json:"pageSizeOptions"`
	PageCount          int                    `json:"pageCount"`
	StartIndex         int                    `json:"startIndex"`
	TotalResults       int                    `json:"totalResults"`
	VisibleCount       int                    `json:"visibleCount"`
	Sort               models.SortSpec        `json:"sort"`
	TextFilter         string                 `json:"textFilter"`
	IsLoading          bool                   `json:"isLoading"`
	ErrorMessage       string                 `json:"errorMessage,omitempty"`
	FetchedAt          *time.Time             `json:"fetchedAt,omitempty"`
	Rows               []models.ChangeRecord  `json:"rows"`
}

// Pagination converts the view into envelope pagination metadata.
func (v ResultView) Pagination() *models.Pagination {
	return &models.Pagination{
		PageIndex:    v.PageIndex,
		PageSize:     v.PageSize,
		PageCount:    v.PageCount,
		TotalResults: v.TotalResults,
		VisibleCount: v.VisibleCount,
	}
}

// ModeRequest switches the active data source.
type ModeRequest struct {
	Mode      models.ModeKind `json:"mode"`
	Query     string          `json:"query"`
	Events    []string        `json:"events"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
}

// PageRequest selects a page by zero-based index.
type PageRequest struct {
	PageIndex *int `json:"pageIndex"`
}

// PageSizeRequest changes the number of rows per page.
type PageSizeRequest struct {
	PageSize int `json:"pageSize"`
}

// SortRequest activates a column header.
type SortRequest struct {
	Column string `json:"column"`
}

// TextFilterRequest sets the local substring filter.
type TextFilterRequest struct {
	Filter string `json:"filter"`
}
