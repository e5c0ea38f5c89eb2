package models

// ModeKind names the data source backing a result page.
type ModeKind string

const (
	ModeBrowse ModeKind = "browse"
	ModeSearch ModeKind = "search"
	ModeFilter ModeKind = "filter"
)

// ResultPage is a single fetched page of change records.
type ResultPage struct {
	ResultsPerPage int            `json:"resultsPerPage"`
	StartIndex     int            `json:"startIndex"`
	TotalResults   int            `json:"totalResults"`
	Timestamp      string         `json:"timestamp"`
	Data           []ChangeRecord `json:"data"`
	Mode           ModeKind       `json:"mode"`
}

// Pagination is the envelope metadata describing the current table page.
type Pagination struct {
	PageIndex    int `json:"pageIndex"`
	PageSize     int `json:"pageSize"`
	PageCount    int `json:"pageCount"`
	TotalResults int `json:"totalResults"`
	VisibleCount int `json:"visibleCount"`
}

// PageCount returns ceil(total/pageSize), never less than one.
func PageCount(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}
