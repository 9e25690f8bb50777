package cost

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenders/deadonfilm-sub012/internal/model"
)

func TestAccountant_RecordFeedsBothBreakdowns(t *testing.T) {
	a := NewAccountant(Limits{})

	a.Record(model.SourceClaude, 0.002)
	a.Record(model.SourceWikipedia, 0)

	assert.InDelta(t, 0.002, a.SubjectTotal(), 1e-9)
	assert.InDelta(t, 0.002, a.BatchTotal(), 1e-9)

	a.BeginSubject()
	a.Record(model.SourceClaude, 0.003)

	assert.InDelta(t, 0.003, a.SubjectTotal(), 1e-9)
	assert.InDelta(t, 0.005, a.BatchTotal(), 1e-9)

	batch := a.BatchBreakdown()
	assert.InDelta(t, 0.005, batch.BySource[model.SourceClaude], 1e-9)
	require.NoError(t, batch.Validate())
}

func TestAccountant_SubjectLimit(t *testing.T) {
	a := NewAccountant(Limits{PerSubject: 0.01})

	a.Record(model.SourceClaude, 0.005)
	assert.False(t, a.SubjectLimitReached())

	// Reaching the limit exactly counts as reached.
	a.Record(model.SourceClaude, 0.005)
	assert.True(t, a.SubjectLimitReached())

	// Next subject starts fresh.
	a.BeginSubject()
	assert.False(t, a.SubjectLimitReached())
}

func TestAccountant_TotalLimit(t *testing.T) {
	a := NewAccountant(Limits{Total: 0.01})

	a.Record(model.SourceClaude, 0.004)
	assert.False(t, a.TotalLimitReached())

	a.BeginSubject()
	a.Record(model.SourceClaude, 0.007)
	assert.True(t, a.TotalLimitReached())

	err := a.BudgetError()
	assert.Equal(t, "total", err.Scope)
	assert.InDelta(t, 0.011, err.Current, 1e-9)
	assert.InDelta(t, 0.01, err.Limit, 1e-9)
}

func TestAccountant_ZeroDisablesLimits(t *testing.T) {
	a := NewAccountant(Limits{})

	a.Record(model.SourceClaude, 1000)
	assert.False(t, a.SubjectLimitReached())
	assert.False(t, a.TotalLimitReached())
}

func TestIsBudgetExceeded(t *testing.T) {
	a := NewAccountant(Limits{Total: 0.01})
	a.Record(model.SourceClaude, 0.02)

	assert.True(t, IsBudgetExceeded(a.BudgetError()))
	assert.True(t, IsBudgetExceeded(eris.Wrap(a.BudgetError(), "batch aborted")))
	assert.False(t, IsBudgetExceeded(eris.New("something else")))
	assert.False(t, IsBudgetExceeded(nil))
}

func TestBudgetExceededError_Message(t *testing.T) {
	err := &BudgetExceededError{Scope: "total", Current: 5.1234, Limit: 5}
	assert.Contains(t, err.Error(), "scope=total")
	assert.Contains(t, err.Error(), "$5.1234")
}
