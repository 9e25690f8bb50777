package model

import (
	"math"

	"github.com/rotisserie/eris"
)

// CostBreakdown accumulates spend per source type. Invariant: the by-source
// values always sum to Total (within float tolerance).
type CostBreakdown struct {
	BySource map[SourceType]float64 `json:"by_source"`
	Total    float64                `json:"total"`
}

const costTolerance = 1e-6

// NewCostBreakdown returns a breakdown with every source type initialized
// to zero.
func NewCostBreakdown() *CostBreakdown {
	by := make(map[SourceType]float64, len(AllSourceTypes()))
	for _, t := range AllSourceTypes() {
		by[t] = 0
	}
	return &CostBreakdown{BySource: by}
}

// Add records cost against a source type. Negative costs are clamped to
// zero; a lookup can never refund money.
func (b *CostBreakdown) Add(t SourceType, cost float64) {
	if cost < 0 {
		cost = 0
	}
	b.BySource[t] += cost
	b.Total += cost
}

// Validate checks the sum invariant.
func (b *CostBreakdown) Validate() error {
	var sum float64
	for _, c := range b.BySource {
		sum += c
	}
	if math.Abs(sum-b.Total) > costTolerance {
		return eris.Errorf("cost breakdown out of balance: sum %.8f != total %.8f", sum, b.Total)
	}
	return nil
}

// Clone returns a deep copy.
func (b *CostBreakdown) Clone() *CostBreakdown {
	out := NewCostBreakdown()
	for t, c := range b.BySource {
		out.BySource[t] = c
	}
	out.Total = b.Total
	return out
}
