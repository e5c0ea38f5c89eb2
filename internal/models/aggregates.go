package models

// EventCounts is the gateway's per-event tally.
type EventCounts struct {
	Timestamp   string         `json:"timestamp"`
	TotalEvents int            `json:"total_events_counted"`
	EventCounts map[string]int `json:"event_counts"`
}

// YearCount is one bucket of the per-year tally.
type YearCount struct {
	EventYear int `json:"event_year"`
	Count     int `json:"count"`
}

// YearCounts is the gateway's per-year tally.
type YearCounts struct {
	YearCounts []YearCount `json:"year_counts"`
}

// TopSource is a reporting source with its event total.
type TopSource struct {
	Source     string `json:"source"`
	TotalCount int    `json:"total_count"`
}

// TopSources ranks reporting sources.
type TopSources struct {
	Timestamp  string      `json:"timestamp"`
	Limit      int         `json:"limit"`
	TopSources []TopSource `json:"top_sources"`
}

// AnalysisStatusCount is one analysis status bucket.
type AnalysisStatusCount struct {
	StatusLabel string `json:"status_label"`
	Count       int    `json:"count"`
}

// AnalysisStatus tallies records by analysis status.
type AnalysisStatus struct {
	Timestamp      string                `json:"timestamp"`
	TotalStatuses  int                   `json:"total_statuses"`
	AnalysisStatus []AnalysisStatusCount `json:"analysis_status"`
}

// MonthlyEvent holds twelve monthly counts for one event name.
type MonthlyEvent struct {
	EventName string `json:"eventName"`
	Monthly   []int  `json:"monthly"`
	Total     int    `json:"total"`
}

// MonthlyTrends is the per-month event breakdown for a year.
type MonthlyTrends struct {
	Timestamp      string         `json:"timestamp"`
	Year           int            `json:"year"`
	TopN           int            `json:"top_n,omitempty"`
	Events         []MonthlyEvent `json:"events"`
	AvailableYears []int          `json:"available_years"`
}

// GrowthPoint is the record count for one year.
type GrowthPoint struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// Growth is the growth-over-time series.
type Growth struct {
	Growth []GrowthPoint `json:"growth"`
}

// ProcessedCounters are the processing counters for one reporting period.
type ProcessedCounters struct {
	NewReceived        int `json:"new_cve_received"`
	NewAnalyzed        int `json:"new_cve_analyzed"`
	ModifiedReceived   int `json:"modified_cve_received"`
	ModifiedReanalyzed int `json:"modified_cve_reanalyzed"`
}

// ProcessedSummary groups counters by reporting period.
type ProcessedSummary struct {
	Today     ProcessedCounters `json:"today"`
	ThisWeek  ProcessedCounters `json:"this_week"`
	ThisMonth ProcessedCounters `json:"this_month"`
	LastMonth ProcessedCounters `json:"last_month"`
	ThisYear  ProcessedCounters `json:"this_year"`
}

// DashboardSummary is the processed/status overview aggregate.
type DashboardSummary struct {
	Processed    ProcessedSummary `json:"cve_processed"`
	StatusCounts map[string]int   `json:"cve_status_counts"`
}
