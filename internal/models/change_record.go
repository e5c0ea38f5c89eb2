package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// ChangeDetail is one free-form object of a change record's details payload.
// Keys and raw JSON values are kept exactly as received so records survive
// a round trip through the dashboard unchanged.
type ChangeDetail map[string]json.RawMessage

// Text renders the value under key for display. Strings are unquoted, null and
// missing keys give "", anything else is its compact JSON text.
func (d ChangeDetail) Text(key string) string {
	raw, ok := d[key]
	if !ok {
		return ""
	}
	return rawText(raw)
}

// Texts renders every value of the detail in key order.
func (d ChangeDetail) Texts() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if text := rawText(d[k]); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func rawText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}

// ChangeRecord is one vulnerability lifecycle event as served by the data gateway.
type ChangeRecord struct {
	ID               int64          `json:"id"`
	CveID            string         `json:"cveId"`
	EventName        string         `json:"eventName"`
	CveChangeID      string         `json:"cveChangeId"`
	SourceIdentifier string         `json:"sourceIdentifier"`
	Created          string         `json:"created"`
	Details          []ChangeDetail `json:"details"`
}

// ChangeRecordPayload is the body sent to the gateway on create.
type ChangeRecordPayload struct {
	CveID            string         `json:"cveId"`
	EventName        string         `json:"eventName"`
	CveChangeID      string         `json:"cveChangeId"`
	SourceIdentifier string         `json:"sourceIdentifier"`
	Created          string         `json:"created"`
	Details          []ChangeDetail `json:"details"`
}

// ChangeRecordUpdate is the body sent to the gateway on edit. Fields left
// empty by the form are omitted so the gateway keeps its stored values.
type ChangeRecordUpdate struct {
	CveID            string          `json:"cveId"`
	EventName        string          `json:"eventName,omitempty"`
	CveChangeID      string          `json:"cveChangeId,omitempty"`
	SourceIdentifier string          `json:"sourceIdentifier"`
	Created          string          `json:"created"`
	Details          *[]ChangeDetail `json:"details,omitempty"`
}

var createdLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseCreated parses the loose timestamp forms accepted for the created field.
func ParseCreated(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CreatedTime returns the parsed created timestamp; unparseable values yield the zero time.
func (r ChangeRecord) CreatedTime() time.Time {
	t, _ := ParseCreated(r.Created)
	return t
}
