package sharepoint

import "time"

// DiagnosticEntry is a recorded failure of a scoped operation
type DiagnosticEntry struct {
	ID         int64
	Operation  string
	Message    string
	RecordedAt time.Time
}
