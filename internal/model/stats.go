package model

import "time"

// SourceTally tracks lookup attempts and successes for one source type
// across a batch.
type SourceTally struct {
	Attempts  int `json:"attempts"`
	Successes int `json:"successes"`
	CacheHits int `json:"cache_hits"`
}

// HitRate returns successes over attempts, or zero when nothing was tried.
func (t SourceTally) HitRate() float64 {
	if t.Attempts == 0 {
		return 0
	}
	return float64(t.Successes) / float64(t.Attempts)
}

// BatchStats is the serializable summary of one batch run.
type BatchStats struct {
	BatchID           string                     `json:"batch_id"`
	SubjectsProcessed int                        `json:"subjects_processed"`
	SubjectsEnriched  int                        `json:"subjects_enriched"`
	FillRate          float64                    `json:"fill_rate"`
	Sources           map[SourceType]SourceTally `json:"sources"`
	Cost              *CostBreakdown             `json:"cost"`
	Errors            []string                   `json:"errors,omitempty"`
	StartedAt         time.Time                  `json:"started_at"`
	Elapsed           time.Duration              `json:"elapsed"`
}
