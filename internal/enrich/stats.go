package enrich

import (
	"time"

	"github.com/google/uuid"

	"github.com/chenders/deadonfilm-sub012/internal/model"
)

// StopReason is the terminal outcome of one subject's source loop.
type StopReason string

const (
	StopSufficientData      StopReason = "stopped-sufficient-data"
	StopConfidenceThreshold StopReason = "stopped-confidence-threshold"
	StopSubjectCostLimit    StopReason = "stopped-per-subject-cost-limit"
	StopExhaustedSources    StopReason = "exhausted-sources"
)

// SubjectCompletion is the event handed to the accumulator when one
// subject's attempt sequence has fully finished. Batch aggregates update
// only from these events, never mid-subject.
type SubjectCompletion struct {
	SubjectID string
	Enriched  bool
	Outcome   StopReason
	Attempts  []model.SourceAttemptRecord
}

// Accumulator folds SubjectCompletion events into batch statistics via
// pure reducers, keeping the aggregation testable without the loop.
type Accumulator struct {
	batchID   string
	startedAt time.Time
	processed int
	enriched  int
	sources   map[model.SourceType]model.SourceTally
	cost      *model.CostBreakdown
	errors    []string
}

// NewAccumulator starts an empty accumulator for one batch run.
func NewAccumulator(startedAt time.Time) *Accumulator {
	sources := make(map[model.SourceType]model.SourceTally, len(model.AllSourceTypes()))
	for _, t := range model.AllSourceTypes() {
		sources[t] = model.SourceTally{}
	}
	return &Accumulator{
		batchID:   uuid.New().String(),
		startedAt: startedAt,
		sources:   sources,
		cost:      model.NewCostBreakdown(),
	}
}

// Apply folds one completed subject into the aggregates.
func (a *Accumulator) Apply(c SubjectCompletion) {
	a.processed++
	if c.Enriched {
		a.enriched++
	}
	for _, att := range c.Attempts {
		tally := a.sources[att.SourceType]
		tally.Attempts++
		if att.Success {
			tally.Successes++
		}
		if att.FromCache {
			tally.CacheHits++
		}
		a.sources[att.SourceType] = tally

		a.cost.Add(att.SourceType, att.Cost)
		if att.Error != "" {
			a.errors = append(a.errors, c.SubjectID+": "+att.Source+": "+att.Error)
		}
	}
}

// Snapshot builds the batch statistics as of now.
func (a *Accumulator) Snapshot(now time.Time) *model.BatchStats {
	stats := &model.BatchStats{
		BatchID:           a.batchID,
		SubjectsProcessed: a.processed,
		SubjectsEnriched:  a.enriched,
		Sources:           make(map[model.SourceType]model.SourceTally, len(a.sources)),
		Cost:              a.cost.Clone(),
		Errors:            append([]string(nil), a.errors...),
		StartedAt:         a.startedAt,
		Elapsed:           now.Sub(a.startedAt),
	}
	for t, tally := range a.sources {
		stats.Sources[t] = tally
	}
	if a.processed > 0 {
		stats.FillRate = float64(a.enriched) / float64(a.processed)
	}
	return stats
}
