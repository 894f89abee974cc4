package model

import "fmt"

// EventKind is the closed set of check-in event types.
type EventKind string

// Event kinds as stored in the check-in log
const (
	KindStart EventKind = "sleep_start"
	KindEnd   EventKind = "sleep_end"
)

// Valid reports whether k is one of the known kinds.
func (k EventKind) Valid() bool {
	return k == KindStart || k == KindEnd
}

// ParseEventKind accepts the stored names plus the short forms "start" and "end".
func ParseEventKind(s string) (EventKind, error) {
	switch s {
	case string(KindStart), "start":
		return KindStart, nil
	case string(KindEnd), "end":
		return KindEnd, nil
	default:
		return "", fmt.Errorf("unknown event kind %q", s)
	}
}

// Store backends
const (
	StoreJSONL  = "jsonl"
	StoreSQLite = "sqlite"
)

// Output formats
const (
	OutputTable   = "table"
	OutputJSON    = "json"
	OutputCSV     = "csv"
	OutputSummary = "summary"
)
