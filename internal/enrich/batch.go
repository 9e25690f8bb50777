package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chenders/deadonfilm-sub012/internal/model"
)

// EnrichBatch processes subjects strictly sequentially and returns every
// completed subject's result. On a total-budget trip the partial map is
// returned alongside a *cost.BudgetExceededError, and final stats are
// emitted before the error is surfaced. The reporter is stopped on every
// exit path.
func (o *Orchestrator) EnrichBatch(ctx context.Context, subjects []model.Subject) (map[string]*model.EnrichmentResult, *model.BatchStats, error) {
	results := make(map[string]*model.EnrichmentResult, len(subjects))
	acc := NewAccumulator(o.now())

	o.reporter.BatchStarted(len(subjects))
	defer o.reporter.Stop()

	for i, subject := range subjects {
		if i > 0 && o.opts.SubjectDelay > 0 {
			if err := sleep(ctx, o.opts.SubjectDelay); err != nil {
				stats := o.finish(acc)
				return results, stats, err
			}
		}

		o.reporter.SubjectStarted(subject, i, len(subjects))

		result, completion := o.EnrichSubject(ctx, subject)
		results[subject.ID] = result

		// Aggregates only move at subject boundaries.
		acc.Apply(completion)
		o.reporter.SubjectCompleted(subject, completion.Outcome, result)
		o.markChecked(ctx, subject)

		if o.acct.TotalLimitReached() {
			stats := o.finish(acc)
			err := o.acct.BudgetError()
			zap.L().Warn("batch aborted: total cost limit",
				zap.Float64("total", err.Current),
				zap.Float64("limit", err.Limit),
				zap.Int("processed", stats.SubjectsProcessed),
			)
			return results, stats, err
		}
	}

	return results, o.finish(acc), nil
}

// finish snapshots the aggregates and emits final stats. Always called
// before any batch-terminating error escapes.
func (o *Orchestrator) finish(acc *Accumulator) *model.BatchStats {
	stats := acc.Snapshot(o.now())
	o.reporter.BatchFinished(stats)
	return stats
}

func (o *Orchestrator) markChecked(ctx context.Context, subject model.Subject) {
	if o.marker == nil {
		return
	}
	if err := o.marker.MarkSubjectChecked(ctx, subject.ID, subject.Name, o.now()); err != nil {
		zap.L().Warn("mark subject checked failed",
			zap.String("subject", subject.ID),
			zap.Error(err),
		)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
