// Package cost tracks enrichment spend and enforces the per-subject and
// per-batch budget limits.
package cost

import (
	"errors"
	"fmt"

	"github.com/chenders/deadonfilm-sub012/internal/model"
)

// Limits holds the two independent budget thresholds. Zero disables a
// threshold.
type Limits struct {
	PerSubject float64 `yaml:"per_subject" mapstructure:"per_subject"`
	Total      float64 `yaml:"total" mapstructure:"total"`
}

// BudgetExceededError terminates a batch when the total budget is spent.
// It is the only error allowed to stop a batch, and it is raised only
// after final stats have been emitted.
type BudgetExceededError struct {
	Scope   string
	Current float64
	Limit   float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("cost limit exceeded (scope=%s): $%.4f >= $%.4f", e.Scope, e.Current, e.Limit)
}

// IsBudgetExceeded reports whether err wraps a BudgetExceededError.
func IsBudgetExceeded(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}

// Accountant accumulates cost per subject and per batch. It is
// process-local: when a batch is split across processes the total limit
// is enforced per process only.
type Accountant struct {
	limits  Limits
	subject *model.CostBreakdown
	batch   *model.CostBreakdown
}

// NewAccountant creates an accountant with the given limits.
func NewAccountant(limits Limits) *Accountant {
	return &Accountant{
		limits:  limits,
		subject: model.NewCostBreakdown(),
		batch:   model.NewCostBreakdown(),
	}
}

// BeginSubject resets the per-subject breakdown. Batch totals carry over.
func (a *Accountant) BeginSubject() {
	a.subject = model.NewCostBreakdown()
}

// Record adds an attempt's cost to both the subject and batch breakdowns.
// Called immediately after every attempt so accounting survives a
// mid-batch interruption.
func (a *Accountant) Record(t model.SourceType, cost float64) {
	a.subject.Add(t, cost)
	a.batch.Add(t, cost)
}

// SubjectLimitReached reports whether the current subject's spend has met
// or exceeded the per-subject limit. Not an error condition; the subject
// keeps its partial result.
func (a *Accountant) SubjectLimitReached() bool {
	return a.limits.PerSubject > 0 && a.subject.Total >= a.limits.PerSubject
}

// TotalLimitReached reports whether the batch spend has met or exceeded
// the total limit. Checked at subject boundaries only.
func (a *Accountant) TotalLimitReached() bool {
	return a.limits.Total > 0 && a.batch.Total >= a.limits.Total
}

// BudgetError builds the batch-abort error for the current totals.
func (a *Accountant) BudgetError() *BudgetExceededError {
	return &BudgetExceededError{
		Scope:   "total",
		Current: a.batch.Total,
		Limit:   a.limits.Total,
	}
}

// SubjectTotal returns the current subject's accumulated cost.
func (a *Accountant) SubjectTotal() float64 {
	return a.subject.Total
}

// BatchTotal returns the batch's accumulated cost.
func (a *Accountant) BatchTotal() float64 {
	return a.batch.Total
}

// BatchBreakdown returns a copy of the batch cost breakdown.
func (a *Accountant) BatchBreakdown() *model.CostBreakdown {
	return a.batch.Clone()
}

// SubjectBreakdown returns a copy of the current subject's breakdown.
func (a *Accountant) SubjectBreakdown() *model.CostBreakdown {
	return a.subject.Clone()
}
