package models

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used by filters.
const DateLayout = "2006-01-02"

// FilterCriteria narrows the gateway result set by event kind and date range.
type FilterCriteria struct {
	Events    []string `json:"events"`
	StartDate string   `json:"startDate,omitempty"`
	EndDate   string   `json:"endDate,omitempty"`
}

// IsEmpty reports whether no criterion is set.
func (c FilterCriteria) IsEmpty() bool {
	return len(c.Events) == 0 && c.StartDate == "" && c.EndDate == ""
}

// AppliedCount is the number of active criteria shown on the filter badge.
func (c FilterCriteria) AppliedCount() int {
	n := len(c.Events)
	if c.StartDate != "" {
		n++
	}
	if c.EndDate != "" {
		n++
	}
	return n
}

// Normalize trims and deduplicates events, defaults a missing end date to the
// start date and validates the range against today. Field errors are keyed by
// JSON field name.
func (c FilterCriteria) Normalize(today time.Time) (FilterCriteria, map[string]string) {
	out := FilterCriteria{
		StartDate: strings.TrimSpace(c.StartDate),
		EndDate:   strings.TrimSpace(c.EndDate),
	}
	seen := make(map[string]struct{}, len(c.Events))
	for _, ev := range c.Events {
		ev = strings.TrimSpace(ev)
		if ev == "" {
			continue
		}
		if _, dup := seen[ev]; dup {
			continue
		}
		seen[ev] = struct{}{}
		out.Events = append(out.Events, ev)
	}

	fields := map[string]string{}
	todayStr := today.Format(DateLayout)

	var start, end time.Time
	if out.StartDate != "" {
		t, err := time.Parse(DateLayout, out.StartDate)
		switch {
		case err != nil:
			fields["startDate"] = "Start date must be a YYYY-MM-DD date."
		case out.StartDate > todayStr:
			fields["startDate"] = "Start date cannot be in the future."
		default:
			start = t
		}
	}
	if out.EndDate != "" {
		t, err := time.Parse(DateLayout, out.EndDate)
		switch {
		case err != nil:
			fields["endDate"] = "End date must be a YYYY-MM-DD date."
		case out.StartDate == "":
			fields["endDate"] = "End date requires a start date."
		case out.EndDate > todayStr:
			fields["endDate"] = "End date cannot be greater than today's date."
		default:
			end = t
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		fields["endDate"] = "End date cannot be earlier than Start date."
	}
	if out.StartDate != "" && out.EndDate == "" {
		out.EndDate = out.StartDate
	}

	if len(fields) == 0 {
		fields = nil
	}
	return out, fields
}
