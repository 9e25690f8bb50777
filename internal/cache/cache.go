// Package cache is the content-addressed store of every (source, query)
// outcome. Failed lookups are cached too: a transient blip is remembered
// as a permanent miss until an explicit reset or prune clears it. That
// trade-off is deliberate; there is no implicit TTL on error entries.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/chenders/deadonfilm-sub012/internal/model"
	"github.com/chenders/deadonfilm-sub012/internal/store"
)

// DefaultCompressAt is the payload size in bytes above which entries are
// stored gzip-compressed.
const DefaultCompressAt = 4096

// Normalize canonicalizes a query string so equivalent lookups share a
// cache entry: lowercase, trimmed, inner whitespace collapsed.
func Normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(query))), " ")
}

// Key returns the SHA-256 hex digest of the normalized (sourceType, query)
// pair. Identical inputs always collide; distinct pairs practically never do.
func Key(sourceType model.SourceType, query string) string {
	h := sha256.Sum256([]byte(string(sourceType) + "|" + Normalize(query)))
	return fmt.Sprintf("%x", h)
}

// QueryCache wraps a Store with hashing and transparent compression.
type QueryCache struct {
	store      store.Store
	compressAt int
}

// Option configures a QueryCache.
type Option func(*QueryCache)

// WithCompressAt overrides the compression threshold in bytes.
func WithCompressAt(n int) Option {
	return func(c *QueryCache) { c.compressAt = n }
}

// New creates a QueryCache over the given store.
func New(st store.Store, opts ...Option) *QueryCache {
	c := &QueryCache{store: st, compressAt: DefaultCompressAt}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the stored outcome for (sourceType, query), or (nil, false)
// on a miss. Compressed payloads are decompressed before return.
func (c *QueryCache) Get(ctx context.Context, sourceType model.SourceType, query string) (*model.CachedQuery, bool, error) {
	hash := Key(sourceType, query)
	entry, err := c.store.GetQuery(ctx, sourceType, hash)
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: get")
	}
	if entry == nil {
		return nil, false, nil
	}
	if entry.Compressed {
		payload, err := gunzip(entry.Payload)
		if err != nil {
			return nil, false, eris.Wrapf(err, "cache: decompress %s", shortHash(hash))
		}
		entry.Payload = payload
		entry.Compressed = false
	}
	zap.L().Debug("query cache hit",
		zap.String("source", string(sourceType)),
		zap.String("key", shortHash(hash)),
		zap.Bool("success", entry.Success),
	)
	return entry, true, nil
}

// Set upserts the outcome for its (sourceType, query) pair, compressing
// large payloads. SizeBytes always records the uncompressed size.
func (c *QueryCache) Set(ctx context.Context, entry *model.CachedQuery) error {
	if !entry.SourceType.Valid() {
		return eris.Errorf("cache: unknown source type %q", entry.SourceType)
	}
	entry.Hash = Key(entry.SourceType, entry.Query)
	entry.Query = Normalize(entry.Query)
	entry.SizeBytes = len(entry.Payload)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if len(entry.Payload) >= c.compressAt {
		compressed, err := gzipBytes(entry.Payload)
		if err != nil {
			return eris.Wrap(err, "cache: compress")
		}
		// Only keep the compressed form when it actually helps.
		if len(compressed) < len(entry.Payload) {
			entry.Payload = compressed
			entry.Compressed = true
		}
	}

	if err := c.store.UpsertQuery(ctx, entry); err != nil {
		return eris.Wrap(err, "cache: set")
	}
	return nil
}

// PruneOlderThan deletes entries created before the cutoff. This is the
// documented operator override for cached error entries.
func (c *QueryCache) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := c.store.DeleteQueriesBefore(ctx, cutoff)
	return n, eris.Wrap(err, "cache: prune")
}

// DeleteSource removes every entry for one source type.
func (c *QueryCache) DeleteSource(ctx context.Context, sourceType model.SourceType) (int64, error) {
	n, err := c.store.DeleteQueriesBySource(ctx, sourceType)
	return n, eris.Wrap(err, "cache: delete source")
}

// DeleteSubjects removes every entry for the given subjects.
func (c *QueryCache) DeleteSubjects(ctx context.Context, subjectIDs []string) (int64, error) {
	n, err := c.store.DeleteQueriesBySubjects(ctx, subjectIDs)
	return n, eris.Wrap(err, "cache: delete subjects")
}

// Clear removes everything.
func (c *QueryCache) Clear(ctx context.Context) (int64, error) {
	n, err := c.store.ClearQueries(ctx)
	return n, eris.Wrap(err, "cache: clear")
}

// Stats returns aggregate cache statistics.
func (c *QueryCache) Stats(ctx context.Context) (*store.CacheStats, error) {
	stats, err := c.store.QueryStats(ctx)
	return stats, eris.Wrap(err, "cache: stats")
}

// ResetSubjectStatus clears last-checked markers per the filter so batch
// selection reconsiders those subjects.
func (c *QueryCache) ResetSubjectStatus(ctx context.Context, filter store.ResetFilter) (int64, error) {
	n, err := c.store.ResetSubjectStatus(ctx, filter)
	return n, eris.Wrap(err, "cache: reset subject status")
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
