package service

import (
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/cve-dashboard/internal/models"
)

// FilterRecords keeps records where any displayed column contains substring,
// ignoring case. An empty substring keeps every record.
func FilterRecords(records []models.ChangeRecord, substring string) []models.ChangeRecord {
	out := make([]models.ChangeRecord, 0, len(records))
	needle := strings.ToLower(substring)
	for _, r := range records {
		if needle == "" || recordContains(r, needle) {
			out = append(out, r)
		}
	}
	return out
}

func recordContains(r models.ChangeRecord, needle string) bool {
	fields := []string{
		strconv.FormatInt(r.ID, 10),
		r.CveID,
		r.EventName,
		r.CveChangeID,
		r.SourceIdentifier,
		r.Created,
	}
	for _, d := range r.Details {
		fields = append(fields, d.Texts()...)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// SortRecords returns a stably sorted copy of records.
func SortRecords(records []models.ChangeRecord, spec models.SortSpec) []models.ChangeRecord {
	out := append([]models.ChangeRecord(nil), records...)
	if out == nil {
		out = []models.ChangeRecord{}
	}
	if spec.IsNone() {
		return out
	}
	less := lessFor(spec.Column)
	sort.SliceStable(out, func(i, j int) bool {
		if spec.Direction == models.DirectionDesc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFor(col models.SortColumn) func(a, b models.ChangeRecord) bool {
	switch col {
	case models.SortID:
		return func(a, b models.ChangeRecord) bool { return a.ID < b.ID }
	case models.SortCreated:
		return func(a, b models.ChangeRecord) bool { return a.CreatedTime().Before(b.CreatedTime()) }
	default:
		return func(a, b models.ChangeRecord) bool {
			return strings.ToLower(columnValue(a, col)) < strings.ToLower(columnValue(b, col))
		}
	}
}

func columnValue(r models.ChangeRecord, col models.SortColumn) string {
	switch col {
	case models.SortCveID:
		return r.CveID
	case models.SortEventName:
		return r.EventName
	case models.SortCveChangeID:
		return r.CveChangeID
	case models.SortSourceIdentifier:
		return r.SourceIdentifier
	default:
		return ""
	}
}
