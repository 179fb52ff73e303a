// backend/models/snapshot.go
package models

import "time"

// Snapshot is one append-only audit row per ingestion attempt (manual upload
// or scheduled sync). Created when the ingestion starts, finalized once with
// the terminal status, never mutated afterwards. The read path does not
// consult it.
type Snapshot struct {
	ID               int64     `json:"id"`
	Source           string    `json:"source"`
	RawData          string    `json:"raw_data,omitempty"`
	RecordCount      int       `json:"record_count"`
	Success          bool      `json:"success"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	FetchedAt        time.Time `json:"fetched_at"`
}
