package service

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/cve-dashboard/internal/dto"
	"github.com/noah-isme/cve-dashboard/internal/models"
)

var (
	monthLabels   = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	nonKeyChars   = regexp.MustCompile(`[^a-z0-9]+`)
	statusOrder   = []string{"Total", "Received", "Awaiting Analysis", "Undergoing Analysis", "Modified", "Deferred", "Rejected"}
	periodLabels  = []string{"Today", "This Week", "This Month", "Last Month", "This Year"}
	counterLabels = []struct{ key, label string }{
		{"new_cve_received", "New CVE Received"},
		{"new_cve_analyzed", "New CVE Analyzed"},
		{"modified_cve_received", "Modified CVE Received"},
		{"modified_cve_reanalyzed", "Modified CVE Reanalyzed"},
	}
)

// SeriesKey turns a display name into a stable series key: lower-case,
// non-alphanumerics replaced by one underscore, no leading or trailing underscore.
func SeriesKey(name string) string {
	key := nonKeyChars.ReplaceAllString(strings.ToLower(name), "_")
	key = strings.Trim(key, "_")
	if key == "" {
		return "series"
	}
	return key
}

// EventCountsDataset shapes the event tally as a pie, largest first.
func EventCountsDataset(in *models.EventCounts) dto.ChartDataset {
	type pair struct {
		name  string
		count int
	}
	pairs := make([]pair, 0, len(in.EventCounts))
	for name, count := range in.EventCounts {
		pairs = append(pairs, pair{name, count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].name < pairs[j].name
	})
	ds := dto.ChartDataset{
		Kind:       dto.ChartPie,
		Title:      "Events by type",
		Categories: make([]string, 0, len(pairs)),
		Meta:       dto.ChartMeta{Total: in.TotalEvents, Timestamp: in.Timestamp},
	}
	values := make([]float64, 0, len(pairs))
	for _, p := range pairs {
		ds.Categories = append(ds.Categories, p.name)
		values = append(values, float64(p.count))
	}
	ds.Series = []dto.ChartSeries{{Key: "count", Label: "Events", Values: values}}
	return ds
}

// YearCountsDataset shapes the per-year tally as an area chart, oldest year first.
func YearCountsDataset(in *models.YearCounts) dto.ChartDataset {
	items := append([]models.YearCount(nil), in.YearCounts...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].EventYear < items[j].EventYear })
	ds := dto.ChartDataset{Kind: dto.ChartArea, Title: "CVE events per year", Categories: make([]string, 0, len(items))}
	values := make([]float64, 0, len(items))
	for _, it := range items {
		ds.Categories = append(ds.Categories, strconv.Itoa(it.EventYear))
		values = append(values, float64(it.Count))
	}
	ds.Series = []dto.ChartSeries{{Key: "count", Label: "CVE count", Values: values}}
	return ds
}

// TopSourcesDataset keeps the gateway ranking order.
func TopSourcesDataset(in *models.TopSources) dto.ChartDataset {
	ds := dto.ChartDataset{
		Kind:       dto.ChartBar,
		Title:      "Top reporting sources",
		Categories: make([]string, 0, len(in.TopSources)),
		Meta:       dto.ChartMeta{Timestamp: in.Timestamp},
	}
	values := make([]float64, 0, len(in.TopSources))
	for _, s := range in.TopSources {
		ds.Categories = append(ds.Categories, s.Source)
		values = append(values, float64(s.TotalCount))
	}
	ds.Series = []dto.ChartSeries{{Key: "total_count", Label: "Total events", Values: values}}
	return ds
}

// AnalysisStatusDataset shapes status counts as a bar chart.
func AnalysisStatusDataset(in *models.AnalysisStatus) dto.ChartDataset {
	ds := dto.ChartDataset{
		Kind:       dto.ChartBar,
		Title:      "Analysis status",
		Categories: make([]string, 0, len(in.AnalysisStatus)),
		Meta:       dto.ChartMeta{Total: in.TotalStatuses, Timestamp: in.Timestamp},
	}
	values := make([]float64, 0, len(in.AnalysisStatus))
	for _, s := range in.AnalysisStatus {
		ds.Categories = append(ds.Categories, s.StatusLabel)
		values = append(values, float64(s.Count))
	}
	ds.Series = []dto.ChartSeries{{Key: "count", Label: "Records", Values: values}}
	return ds
}

// MonthlyTrendsDataset builds one series per event over Jan..Dec.
func MonthlyTrendsDataset(in *models.MonthlyTrends) dto.ChartDataset {
	ds := dto.ChartDataset{
		Kind:       dto.ChartBar,
		Title:      "Monthly event trends",
		Categories: append([]string(nil), monthLabels...),
		Series:     make([]dto.ChartSeries, 0, len(in.Events)),
		Meta:       dto.ChartMeta{Year: in.Year, AvailableYears: in.AvailableYears, Timestamp: in.Timestamp},
	}
	used := map[string]int{}
	for _, ev := range in.Events {
		values := make([]float64, len(monthLabels))
		for i := 0; i < len(values) && i < len(ev.Monthly); i++ {
			values[i] = float64(ev.Monthly[i])
		}
		key := SeriesKey(ev.EventName)
		if n := used[key]; n > 0 {
			used[key] = n + 1
			key = key + "_" + strconv.Itoa(n+1)
		} else {
			used[key] = 1
		}
		ds.Series = append(ds.Series, dto.ChartSeries{Key: key, Label: ev.EventName, Values: values})
	}
	return ds
}

// GrowthDataset shapes growth over time as a line chart in gateway order.
func GrowthDataset(in *models.Growth) dto.ChartDataset {
	ds := dto.ChartDataset{Kind: dto.ChartLine, Title: "Total CVEs over time", Categories: make([]string, 0, len(in.Growth))}
	values := make([]float64, 0, len(in.Growth))
	for _, g := range in.Growth {
		ds.Categories = append(ds.Categories, strconv.Itoa(g.Year))
		values = append(values, float64(g.Count))
	}
	ds.Series = []dto.ChartSeries{{Key: "total_cves", Label: "Total CVEs", Values: values}}
	return ds
}

// SummaryDatasets builds the processed-counters table and the status bar chart.
func SummaryDatasets(in *models.DashboardSummary) dto.SummaryCharts {
	p := in.Processed
	periods := []models.ProcessedCounters{p.Today, p.ThisWeek, p.ThisMonth, p.LastMonth, p.ThisYear}
	processed := dto.ChartDataset{
		Kind:       dto.ChartTable,
		Title:      "CVEs processed",
		Categories: append([]string(nil), periodLabels...),
		Series:     make([]dto.ChartSeries, 0, len(counterLabels)),
	}
	for _, c := range counterLabels {
		values := make([]float64, len(periods))
		for i, period := range periods {
			values[i] = float64(counterValue(period, c.key))
		}
		processed.Series = append(processed.Series, dto.ChartSeries{Key: c.key, Label: c.label, Values: values})
	}

	status := dto.ChartDataset{Kind: dto.ChartBar, Title: "CVE status counts"}
	values := []float64{}
	for _, label := range orderedStatusLabels(in.StatusCounts) {
		status.Categories = append(status.Categories, label)
		values = append(values, float64(in.StatusCounts[label]))
	}
	if status.Categories == nil {
		status.Categories = []string{}
	}
	status.Series = []dto.ChartSeries{{Key: "count", Label: "CVEs", Values: values}}
	return dto.SummaryCharts{Processed: processed, Status: status}
}

func counterValue(c models.ProcessedCounters, key string) int {
	switch key {
	case "new_cve_received":
		return c.NewReceived
	case "new_cve_analyzed":
		return c.NewAnalyzed
	case "modified_cve_received":
		return c.ModifiedReceived
	default:
		return c.ModifiedReanalyzed
	}
}

// orderedStatusLabels lists the known statuses first, then any others alphabetically.
func orderedStatusLabels(counts map[string]int) []string {
	out := make([]string, 0, len(counts))
	known := make(map[string]struct{}, len(statusOrder))
	for _, label := range statusOrder {
		known[label] = struct{}{}
		if _, ok := counts[label]; ok {
			out = append(out, label)
		}
	}
	var extra []string
	for label := range counts {
		if _, ok := known[label]; !ok {
			extra = append(extra, label)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
