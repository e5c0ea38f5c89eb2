package dto

import "encoding/json"

// CreateChangeRecordRequest is the create form payload. Details may be a JSON
// array or a string holding one, as typed into a free-form field.
type CreateChangeRecordRequest struct {
	CveID            string          `json:"cveId" validate:"required"`
	EventName        string          `json:"eventName" validate:"required"`
	CveChangeID      string          `json:"cveChangeId" validate:"required"`
	SourceIdentifier string          `json:"sourceIdentifier" validate:"required,looseemail"`
	Created          string          `json:"created" validate:"required,created"`
	Details          json.RawMessage `json:"details" validate:"required"`
}

// UpdateChangeRecordRequest is the edit form payload. The id is taken from the path.
type UpdateChangeRecordRequest struct {
	CveID            string          `json:"cveId" validate:"required"`
	EventName        string          `json:"eventName"`
	CveChangeID      string          `json:"cveChangeId"`
	SourceIdentifier string          `json:"sourceIdentifier" validate:"required,looseemail"`
	Created          string          `json:"created" validate:"required,created"`
	Details          json.RawMessage `json:"details"`
}

// EventOptionRequest creates a new event option.
type EventOptionRequest struct {
	EventName string `json:"eventName"`
}

// EventOptionsResponse lists event options and whether defaults were used.
type EventOptionsResponse struct {
	Options  []string `json:"options"`
	Fallback bool     `json:"fallback"`
}

// SuggestionsResponse lists distinct identifiers matching a prefix.
type SuggestionsResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}
