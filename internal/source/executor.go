package source

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/chenders/deadonfilm-sub012/internal/cache"
	"github.com/chenders/deadonfilm-sub012/internal/model"
)

// Executor runs source lookups through the query cache. A hit replays the
// stored outcome with no cost and no delay; a miss executes the source and
// unconditionally writes the outcome back, failures included, so repeated
// runs never re-pay for a query already known to yield nothing.
type Executor struct {
	cache *cache.QueryCache
	now   func() time.Time
}

// NewExecutor creates an executor over the query cache.
func NewExecutor(qc *cache.QueryCache) *Executor {
	return &Executor{cache: qc, now: time.Now}
}

// payloadEnvelope is the cached form of a successful lookup.
type payloadEnvelope struct {
	Confidence float64        `json:"confidence"`
	Data       map[string]any `json:"data"`
}

// Lookup performs the cache-checked lookup of src for subject. A returned
// error is always a hard failure (blocked source); the lookup value is
// populated either way.
func (e *Executor) Lookup(ctx context.Context, src Source, subject model.Subject) (*Lookup, error) {
	query := src.Query(subject)

	entry, hit, err := e.cache.Get(ctx, src.Type(), query)
	if err != nil {
		// A broken cache read must not block enrichment; fall through to
		// the live lookup.
		zap.L().Warn("query cache read failed",
			zap.String("source", src.Name()),
			zap.Error(err),
		)
	}
	if hit {
		lk, replayErr := replay(entry)
		if replayErr == nil {
			return lk, nil
		}
		// An undecodable payload is as useless as a failed read; re-query
		// the source and let the write-back replace the entry.
		zap.L().Warn("query cache entry unusable",
			zap.String("source", src.Name()),
			zap.Error(replayErr),
		)
	}

	started := e.now()
	lk, lookupErr := src.Lookup(ctx, subject)
	if lk == nil {
		lk = &Lookup{}
	}
	if lk.Elapsed == 0 {
		lk.Elapsed = e.now().Sub(started)
	}
	if lookupErr != nil {
		lk.Success = false
		if lk.Err == "" {
			lk.Err = lookupErr.Error()
		}
	}

	if err := e.writeBack(ctx, src, subject, query, lk); err != nil {
		zap.L().Warn("query cache write failed",
			zap.String("source", src.Name()),
			zap.Error(err),
		)
	}

	return lk, lookupErr
}

func (e *Executor) writeBack(ctx context.Context, src Source, subject model.Subject, query string, lk *Lookup) error {
	entry := &model.CachedQuery{
		SourceType: src.Type(),
		SubjectID:  subject.ID,
		Query:      query,
		Success:    lk.Success,
		Error:      lk.Err,
		Cost:       lk.Cost,
		Elapsed:    lk.Elapsed,
		CreatedAt:  e.now().UTC(),
	}
	if lk.Success {
		payload, err := json.Marshal(payloadEnvelope{Confidence: lk.Confidence, Data: lk.Data})
		if err != nil {
			return eris.Wrap(err, "marshal lookup payload")
		}
		entry.Payload = payload
	}
	return e.cache.Set(ctx, entry)
}

// replay reconstructs a lookup from a cache entry. Cached errors replay as
// soft failures; cached hits carry no fresh cost.
func replay(entry *model.CachedQuery) (*Lookup, error) {
	lk := &Lookup{
		Success:   entry.Success,
		Err:       entry.Error,
		FromCache: true,
	}
	if !entry.Success {
		return lk, nil
	}
	var env payloadEnvelope
	if err := json.Unmarshal(entry.Payload, &env); err != nil {
		return nil, eris.Wrap(err, "unmarshal cached payload")
	}
	lk.Data = env.Data
	lk.Confidence = env.Confidence
	return lk, nil
}
