// Package store persists the query cache. Any backend exposing
// upsert-by-hash, get-by-hash, predicate deletes, and an aggregate stats
// query can satisfy it; SQLite and Postgres implementations are provided.
package store

import (
	"context"
	"time"

	"github.com/chenders/deadonfilm-sub012/internal/model"
)

// ResetFilter selects which subjects get their last-checked marker cleared
// so batch selection reconsiders them. Exactly one of the fields should be
// set; All wins when combined.
type ResetFilter struct {
	All         bool               `json:"all,omitempty"`
	SubjectIDs  []string           `json:"subject_ids,omitempty"`
	SourceTypes []model.SourceType `json:"source_types,omitempty"`
}

// SourceCacheStats aggregates cache entries for one source type.
type SourceCacheStats struct {
	Entries int64   `json:"entries"`
	Errors  int64   `json:"errors"`
	Cost    float64 `json:"cost"`
}

// CacheStats is the aggregate view of the whole query cache.
type CacheStats struct {
	Entries    int64                                 `json:"entries"`
	TotalBytes int64                                 `json:"total_bytes"`
	Compressed int64                                 `json:"compressed"`
	Errors     int64                                 `json:"errors"`
	TotalCost  float64                               `json:"total_cost"`
	BySource   map[model.SourceType]SourceCacheStats `json:"by_source"`
}

// Store defines the persistence contract for the query cache and the
// subject recheck marker.
type Store interface {
	// Query cache
	UpsertQuery(ctx context.Context, q *model.CachedQuery) error
	GetQuery(ctx context.Context, sourceType model.SourceType, hash string) (*model.CachedQuery, error)
	DeleteQueriesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteQueriesBySource(ctx context.Context, sourceType model.SourceType) (int64, error)
	DeleteQueriesBySubjects(ctx context.Context, subjectIDs []string) (int64, error)
	ClearQueries(ctx context.Context) (int64, error)
	QueryStats(ctx context.Context) (*CacheStats, error)

	// Subject recheck marker
	MarkSubjectChecked(ctx context.Context, subjectID, name string, at time.Time) error
	ResetSubjectStatus(ctx context.Context, filter ResetFilter) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
