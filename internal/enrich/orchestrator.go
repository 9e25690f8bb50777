// Package enrich sequences enrichment sources per subject, merges partial
// results, and enforces the cost circuit breakers across a batch.
package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chenders/deadonfilm-sub012/internal/cost"
	"github.com/chenders/deadonfilm-sub012/internal/model"
	"github.com/chenders/deadonfilm-sub012/internal/source"
)

// Options tunes the per-subject stop policy and batch pacing.
type Options struct {
	// StopOnMatch stops the source loop once the result is sufficient or
	// a source's confidence clears ConfidenceThreshold.
	StopOnMatch bool
	// ConfidenceThreshold is the 0-1 confidence at which an attempt ends
	// the loop (with StopOnMatch). Zero or below disables the check.
	ConfidenceThreshold float64
	// SubjectDelay is the politeness pause between subjects.
	SubjectDelay time.Duration
}

// SubjectMarker records the last-checked marker after a subject finishes,
// so batch selection skips it next time.
type SubjectMarker interface {
	MarkSubjectChecked(ctx context.Context, subjectID, name string, at time.Time) error
}

// Orchestrator drives the per-subject source cascade. Subjects are
// processed strictly sequentially within one instance so the per-source
// rate limits stay collectively correct.
type Orchestrator struct {
	sources  []source.Source
	exec     *source.Executor
	acct     *cost.Accountant
	opts     Options
	reporter Reporter
	marker   SubjectMarker

	now func() time.Time
}

// New builds an orchestrator with a fixed, ordered source list: free
// sources first by reliability, AI sources last by ascending cost, and
// anything unavailable excluded up front.
func New(sources []source.Source, toggles source.Toggles, exec *source.Executor, acct *cost.Accountant, opts Options, reporter Reporter) *Orchestrator {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Orchestrator{
		sources:  source.Order(sources, toggles),
		exec:     exec,
		acct:     acct,
		opts:     opts,
		reporter: reporter,
		now:      time.Now,
	}
}

// WithMarker attaches a last-checked marker sink.
func (o *Orchestrator) WithMarker(m SubjectMarker) *Orchestrator {
	o.marker = m
	return o
}

// Sources returns the resolved priority order (for status output).
func (o *Orchestrator) Sources() []source.Source {
	return o.sources
}

// EnrichSubject runs the source cascade for one subject. The subject
// always yields a result, possibly empty; an empty result is a valid
// non-error outcome.
func (o *Orchestrator) EnrichSubject(ctx context.Context, subject model.Subject) (*model.EnrichmentResult, SubjectCompletion) {
	result := model.NewEnrichmentResult(subject.ID)
	o.acct.BeginSubject()

	completion := SubjectCompletion{
		SubjectID: subject.ID,
		Outcome:   StopExhaustedSources,
	}

	for _, src := range o.sources {
		lk, err := o.exec.Lookup(ctx, src, subject)

		attempt := model.SourceAttemptRecord{
			Source:     src.Name(),
			SourceType: src.Type(),
			Success:    lk.Success,
			FromCache:  lk.FromCache,
			Elapsed:    lk.Elapsed,
			Cost:       lk.Cost,
			Error:      lk.Err,
		}
		completion.Attempts = append(completion.Attempts, attempt)
		o.reporter.SourceAttempted(subject, attempt)

		// Cost lands in both breakdowns immediately so accounting
		// survives a mid-batch interruption.
		o.acct.Record(src.Type(), lk.Cost)

		if err != nil {
			// Hard failure (blocked source). Recorded above; the batch
			// must keep going, but the operator needs the detail.
			zap.L().Warn("source hard failure",
				zap.String("subject", subject.Name),
				zap.String("source", src.Name()),
				zap.Error(err),
			)
		}

		if o.acct.SubjectLimitReached() {
			completion.Outcome = StopSubjectCostLimit
			break
		}

		if !lk.Success || len(lk.Data) == 0 {
			continue
		}

		Merge(result, src.Name(), src.Type(), lk.Data, lk.Confidence, o.now())

		if o.opts.StopOnMatch && result.Sufficient() {
			completion.Outcome = StopSufficientData
			break
		}
		if o.opts.StopOnMatch && o.opts.ConfidenceThreshold > 0 && lk.Confidence >= o.opts.ConfidenceThreshold {
			completion.Outcome = StopConfidenceThreshold
			break
		}
	}

	completion.Enriched = !result.Empty()
	return result, completion
}
