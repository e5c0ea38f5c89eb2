package dto

// ChartKind names a presentation variant.
type ChartKind string

const (
	ChartBar   ChartKind = "bar"
	ChartLine  ChartKind = "line"
	ChartPie   ChartKind = "pie"
	ChartArea  ChartKind = "area"
	ChartTable ChartKind = "table"
)

// ChartSeries is one named numeric series aligned with the dataset categories.
type ChartSeries struct {
	Key    string    `json:"key"`
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// ChartDataset is the uniform shape consumed by every chart renderer.
type ChartDataset struct {
	Kind       ChartKind     `json:"kind"`
	Title      string        `json:"title"`
	Categories []string      `json:"categories"`
	Series     []ChartSeries `json:"series"`
	Meta       ChartMeta     `json:"meta"`
}

// ChartMeta carries optional context such as the selected year.
type ChartMeta struct {
	Year           int    `json:"year,omitempty"`
	AvailableYears []int  `json:"availableYears,omitempty"`
	Total          int    `json:"total,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// SummaryCharts groups the processed table and the status bar chart.
type SummaryCharts struct {
	Processed ChartDataset `json:"processed"`
	Status    ChartDataset `json:"status"`
}
