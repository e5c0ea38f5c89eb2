package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var today = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func TestNormalizeSingleDayFilter(t *testing.T) {
	got, fields := FilterCriteria{Events: []string{"CVE Received"}, StartDate: "2024-01-01"}.Normalize(today)

	assert.Nil(t, fields)
	assert.Equal(t, "2024-01-01", got.StartDate)
	assert.Equal(t, "2024-01-01", got.EndDate)
	assert.Equal(t, []string{"CVE Received"}, got.Events)
}

func TestNormalizeDeduplicatesEvents(t *testing.T) {
	got, fields := FilterCriteria{Events: []string{" Reanalysis", "Reanalysis", "", "CWE Remap"}}.Normalize(today)

	assert.Nil(t, fields)
	assert.Equal(t, []string{"Reanalysis", "CWE Remap"}, got.Events)
}

func TestNormalizeRejectsInvalidRanges(t *testing.T) {
	cases := map[string]struct {
		criteria FilterCriteria
		field    string
	}{
		"end before start": {FilterCriteria{StartDate: "2024-02-01", EndDate: "2024-01-01"}, "endDate"},
		"end without start": {FilterCriteria{EndDate: "2024-01-01"}, "endDate"},
		"future start":      {FilterCriteria{StartDate: "2024-07-01"}, "startDate"},
		"future end":        {FilterCriteria{StartDate: "2024-06-01", EndDate: "2024-07-01"}, "endDate"},
		"malformed start":   {FilterCriteria{StartDate: "01/02/2024"}, "startDate"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, fields := tc.criteria.Normalize(today)
			assert.Contains(t, fields, tc.field)
		})
	}
}

func TestAppliedCount(t *testing.T) {
	c := FilterCriteria{Events: []string{"a", "b"}, StartDate: "2024-01-01", EndDate: "2024-01-01"}
	assert.Equal(t, 4, c.AppliedCount())
	assert.Equal(t, 0, FilterCriteria{}.AppliedCount())
}

func TestModeConstructorsNormalise(t *testing.T) {
	assert.Equal(t, BrowseMode(), SearchMode("   "))
	assert.Equal(t, Mode{Kind: ModeSearch, Query: "CVE-2024"}, SearchMode(" CVE-2024 "))
	assert.Equal(t, BrowseMode(), FilterMode(FilterCriteria{}))
}

func TestParseCreated(t *testing.T) {
	for _, raw := range []string{"2024-03-01", "2024-03-01T10:15", "2024-03-01T10:15:30", "2024-03-01T10:15:30.123Z", "2024-03-01T10:15:30+02:00"} {
		_, ok := ParseCreated(raw)
		assert.True(t, ok, raw)
	}
	_, ok := ParseCreated("yesterday")
	assert.False(t, ok)
	assert.True(t, ChangeRecord{Created: "garbage"}.CreatedTime().IsZero())
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 3, PageCount(25, 10))
	assert.Equal(t, 1, PageCount(0, 10))
	assert.Equal(t, 2, PageCount(20, 10))
	assert.Equal(t, 1, PageCount(5, 0))
}
