package model

import "time"

// CachedQuery is one stored (source, query) outcome. Entries are upserted
// by (SourceType, Hash); failed lookups are stored too so repeated runs
// never re-pay for a query already known to yield nothing.
type CachedQuery struct {
	Hash       string        `json:"hash"`
	SourceType SourceType    `json:"source_type"`
	SubjectID  string        `json:"subject_id,omitempty"`
	Query      string        `json:"query"`
	Success    bool          `json:"success"`
	Payload    []byte        `json:"payload,omitempty"`
	Compressed bool          `json:"compressed"`
	Error      string        `json:"error,omitempty"`
	Cost       float64       `json:"cost"`
	SizeBytes  int           `json:"size_bytes"`
	Elapsed    time.Duration `json:"elapsed"`
	CreatedAt  time.Time     `json:"created_at"`
}
