package models

// SortColumn is a sortable change record field.
type SortColumn string

const (
	SortNone             SortColumn = ""
	SortID               SortColumn = "id"
	SortCveID            SortColumn = "cveId"
	SortEventName        SortColumn = "eventName"
	SortCveChangeID      SortColumn = "cveChangeId"
	SortSourceIdentifier SortColumn = "sourceIdentifier"
	SortCreated          SortColumn = "created"
)

// SortDirection orders a column.
type SortDirection string

const (
	DirectionNone SortDirection = ""
	DirectionAsc  SortDirection = "asc"
	DirectionDesc SortDirection = "desc"
)

// SortSpec is the active client-side ordering of the held page.
type SortSpec struct {
	Column    SortColumn    `json:"column"`
	Direction SortDirection `json:"direction"`
}

// ParseSortColumn validates a column name.
func ParseSortColumn(raw string) (SortColumn, bool) {
	switch col := SortColumn(raw); col {
	case SortID, SortCveID, SortEventName, SortCveChangeID, SortSourceIdentifier, SortCreated:
		return col, true
	default:
		return SortNone, false
	}
}

// IsNone reports whether no ordering is applied.
func (s SortSpec) IsNone() bool {
	return s.Column == SortNone || s.Direction == DirectionNone
}

// Next advances the sort for an activation of col: the same column cycles
// asc, desc, none; another column starts at asc.
func (s SortSpec) Next(col SortColumn) SortSpec {
	if s.Column != col || s.Direction == DirectionNone {
		return SortSpec{Column: col, Direction: DirectionAsc}
	}
	if s.Direction == DirectionAsc {
		return SortSpec{Column: col, Direction: DirectionDesc}
	}
	return SortSpec{}
}
