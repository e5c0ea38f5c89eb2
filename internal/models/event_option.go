package models

// EventOption is a selectable event name for filters and forms.
type EventOption struct {
	ID        int64  `json:"id"`
	EventName string `json:"eventName"`
}

// DefaultEventNames is the built-in event enumeration.
var DefaultEventNames = []string{
	"CVE Received",
	"Initial Analysis",
	"Reanalysis",
	"CVE Modified",
	"Modified Analysis",
	"CVE Translated",
	"Vendor Comment",
	"CVE Source Update",
	"CPE Deprecation Remap",
	"CWE Remap",
	"Reference Tag Update",
	"CVE Rejected",
	"CVE Unrejected",
	"CVE CISA KEV Update",
}
