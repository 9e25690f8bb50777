// Package source defines the provider contract for enrichment lookups and
// the cache-checked execution layer shared by every provider.
package source

import (
	"context"
	"time"

	"github.com/chenders/deadonfilm-sub012/internal/model"
)

// Lookup is the outcome of one source attempt for one subject. Soft
// failures (nothing found, failed quality check, transient network error)
// come back as Success=false with no error; only a hard structural failure
// surfaces as an error from Source.Lookup.
type Lookup struct {
	Success    bool           `json:"success"`
	Data       map[string]any `json:"data,omitempty"`
	Cost       float64        `json:"cost"`
	Confidence float64        `json:"confidence"`
	Elapsed    time.Duration  `json:"elapsed"`
	Err        string         `json:"error,omitempty"`
	FromCache  bool           `json:"from_cache"`
}

// Source is one concrete data provider.
type Source interface {
	// Name returns the provider identifier.
	Name() string
	// Type returns the closed source-type tag for accounting.
	Type() model.SourceType
	// Category groups the source for config-driven enablement.
	Category() model.SourceCategory
	// EstimatedCost is the expected USD cost of one lookup.
	EstimatedCost() float64
	// Reliability is a 0-1 quality score used for free-source ordering.
	Reliability() float64
	// Available reports whether credentials/config allow using the source.
	// Unavailable sources are excluded at construction time.
	Available() bool
	// Query returns the canonical query string for the subject; it is the
	// cache identity for the lookup.
	Query(subject model.Subject) string
	// Lookup performs one enrichment attempt. The context carries the
	// caller's cancellation and must bound any network access.
	Lookup(ctx context.Context, subject model.Subject) (*Lookup, error)
}

// IsFree reports whether the source costs nothing per query.
func IsFree(s Source) bool {
	return s.Category() == model.CategoryFree
}
