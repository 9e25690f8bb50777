package enrich

import (
	"go.uber.org/zap"

	"github.com/chenders/deadonfilm-sub012/internal/model"
)

// Reporter receives lifecycle events from a batch run. Implementations
// must tolerate being called from a single goroutine only; Stop is always
// invoked, on every exit path.
type Reporter interface {
	BatchStarted(total int)
	SubjectStarted(subject model.Subject, index, total int)
	SourceAttempted(subject model.Subject, attempt model.SourceAttemptRecord)
	SubjectCompleted(subject model.Subject, outcome StopReason, result *model.EnrichmentResult)
	BatchFinished(stats *model.BatchStats)
	Stop()
}

// NopReporter discards every event. Used for tests and headless runs.
type NopReporter struct{}

func (NopReporter) BatchStarted(int)                                                    {}
func (NopReporter) SubjectStarted(model.Subject, int, int)                              {}
func (NopReporter) SourceAttempted(model.Subject, model.SourceAttemptRecord)            {}
func (NopReporter) SubjectCompleted(model.Subject, StopReason, *model.EnrichmentResult) {}
func (NopReporter) BatchFinished(*model.BatchStats)                                     {}
func (NopReporter) Stop()                                                               {}

// LogReporter emits structured progress events through zap.
type LogReporter struct{}

func (LogReporter) BatchStarted(total int) {
	zap.L().Info("batch started", zap.Int("subjects", total))
}

func (LogReporter) SubjectStarted(subject model.Subject, index, total int) {
	zap.L().Info("subject started",
		zap.String("subject", subject.Name),
		zap.Int("index", index+1),
		zap.Int("total", total),
	)
}

func (LogReporter) SourceAttempted(subject model.Subject, attempt model.SourceAttemptRecord) {
	fields := []zap.Field{
		zap.String("subject", subject.Name),
		zap.String("source", attempt.Source),
		zap.Bool("success", attempt.Success),
		zap.Bool("cached", attempt.FromCache),
		zap.Duration("elapsed", attempt.Elapsed),
		zap.Float64("cost", attempt.Cost),
	}
	if attempt.Error != "" {
		fields = append(fields, zap.String("error", attempt.Error))
	}
	zap.L().Debug("source attempted", fields...)
}

func (LogReporter) SubjectCompleted(subject model.Subject, outcome StopReason, result *model.EnrichmentResult) {
	zap.L().Info("subject completed",
		zap.String("subject", subject.Name),
		zap.String("outcome", string(outcome)),
		zap.Int("fields", len(result.Fields)),
	)
}

func (LogReporter) BatchFinished(stats *model.BatchStats) {
	zap.L().Info("batch finished",
		zap.Int("processed", stats.SubjectsProcessed),
		zap.Int("enriched", stats.SubjectsEnriched),
		zap.Float64("fill_rate", stats.FillRate),
		zap.Float64("total_cost", stats.Cost.Total),
	)
}

func (LogReporter) Stop() {}
