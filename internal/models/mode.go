package models

import "strings"

// Mode selects which gateway operation governs fetched pages.
type Mode struct {
	Kind     ModeKind       `json:"kind"`
	Query    string         `json:"query,omitempty"`
	Criteria FilterCriteria `json:"criteria"`
}

// BrowseMode lists all records.
func BrowseMode() Mode {
	return Mode{Kind: ModeBrowse}
}

// SearchMode runs a free-text search. A blank query falls back to browsing.
func SearchMode(query string) Mode {
	query = strings.TrimSpace(query)
	if query == "" {
		return BrowseMode()
	}
	return Mode{Kind: ModeSearch, Query: query}
}

// FilterMode applies structured criteria. Empty criteria clear the filter.
func FilterMode(criteria FilterCriteria) Mode {
	if criteria.IsEmpty() {
		return BrowseMode()
	}
	return Mode{Kind: ModeFilter, Criteria: criteria}
}
