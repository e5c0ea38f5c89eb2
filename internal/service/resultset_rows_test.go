package service

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/cve-dashboard/internal/models"
)

func sampleRecords() []models.ChangeRecord {
	return []models.ChangeRecord{
		{ID: 10, CveID: "CVE-2024-0010", EventName: "Reanalysis", SourceIdentifier: "nvd@nist.gov", Created: "2024-03-01"},
		{ID: 2, CveID: "cve-2023-0002", EventName: "CVE Received", SourceIdentifier: "secalert@redhat.com", Created: "2024-01-15T09:30"},
		{ID: 33, CveID: "CVE-2022-0033", EventName: "CWE Remap", SourceIdentifier: "cve@mitre.org", Created: "not a date",
			Details: []models.ChangeDetail{{
				"type":     json.RawMessage(`"CWE"`),
				"action":   json.RawMessage(`"Changed"`),
				"oldValue": json.RawMessage(`"CWE-79"`),
				"newValue": json.RawMessage(`"CWE-89"`),
			}}},
	}
}

func ids(records []models.ChangeRecord) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestSortRecordsByColumn(t *testing.T) {
	records := sampleRecords()

	assert.Equal(t, []int64{2, 10, 33}, ids(SortRecords(records, models.SortSpec{Column: models.SortID, Direction: models.DirectionAsc})))
	assert.Equal(t, []int64{33, 10, 2}, ids(SortRecords(records, models.SortSpec{Column: models.SortID, Direction: models.DirectionDesc})))
	assert.Equal(t, []int64{33, 2, 10}, ids(SortRecords(records, models.SortSpec{Column: models.SortCreated, Direction: models.DirectionAsc})))
	assert.Equal(t, []int64{33, 2, 10}, ids(SortRecords(records, models.SortSpec{Column: models.SortCveID, Direction: models.DirectionAsc})))
	assert.Equal(t, []int64{10, 2, 33}, ids(SortRecords(records, models.SortSpec{})))
}

func TestSortRecordsDoesNotMutateInput(t *testing.T) {
	records := sampleRecords()
	_ = SortRecords(records, models.SortSpec{Column: models.SortID, Direction: models.DirectionAsc})
	assert.Equal(t, []int64{10, 2, 33}, ids(records))
}

func TestFilterRecordsMatchesDetails(t *testing.T) {
	records := sampleRecords()

	assert.Equal(t, []int64{33}, ids(FilterRecords(records, "cwe-89")))
	assert.Equal(t, []int64{2}, ids(FilterRecords(records, "REDHAT")))
	assert.Equal(t, []int64{10, 2, 33}, ids(FilterRecords(records, "")))
	assert.Empty(t, FilterRecords(records, "nothing matches"))
}

func TestFilterRecordsMatchesNonStringDetailValues(t *testing.T) {
	records := []models.ChangeRecord{
		{ID: 1, CveID: "CVE-2024-0001", Details: []models.ChangeDetail{{
			"type":     json.RawMessage(`"CVSS"`),
			"oldValue": json.RawMessage(`7.5`),
			"newValue": json.RawMessage(`{"score": 9.8}`),
		}}},
		{ID: 2, CveID: "CVE-2024-0002"},
	}

	assert.Equal(t, []int64{1}, ids(FilterRecords(records, "7.5")))
	assert.Equal(t, []int64{1}, ids(FilterRecords(records, `"score":9.8`)))
}

func TestFilterRecordsKeepsSurroundingSpaces(t *testing.T) {
	records := []models.ChangeRecord{
		{ID: 1, EventName: "CVE Received"},
		{ID: 2, EventName: "Received"},
	}

	assert.Equal(t, []int64{1}, ids(FilterRecords(records, " received")))
}

func TestFilterRecordsIdempotent(t *testing.T) {
	records := sampleRecords()
	properties := gopter.NewProperties(nil)

	properties.Property("filtering twice equals filtering once", prop.ForAll(
		func(needle string) bool {
			once := FilterRecords(records, needle)
			twice := FilterRecords(once, needle)
			return assert.ObjectsAreEqual(once, twice)
		},
		gen.OneGenOf(gen.AlphaString(), gen.OneConstOf("cve", "2024", "CWE", "nist", "")),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
