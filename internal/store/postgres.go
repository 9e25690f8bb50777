package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/chenders/deadonfilm-sub012/internal/model"
)

// Pool abstracts the pgxpool methods the store uses, so tests can swap in
// pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS query_cache (
	source_type TEXT NOT NULL,
	hash        TEXT NOT NULL,
	subject_id  TEXT,
	query       TEXT NOT NULL,
	success     BOOLEAN NOT NULL,
	payload     BYTEA,
	compressed  BOOLEAN NOT NULL DEFAULT FALSE,
	error       TEXT,
	cost        DOUBLE PRECISION NOT NULL DEFAULT 0,
	size_bytes  BIGINT NOT NULL DEFAULT 0,
	response_ms BIGINT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (source_type, hash)
);

CREATE TABLE IF NOT EXISTS subjects (
	id              TEXT PRIMARY KEY,
	name            TEXT,
	last_checked_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_query_cache_subject ON query_cache(subject_id);
CREATE INDEX IF NOT EXISTS idx_query_cache_created ON query_cache(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertQuery(ctx context.Context, q *model.CachedQuery) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO query_cache
			(source_type, hash, subject_id, query, success, payload, compressed, error, cost, size_bytes, response_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (source_type, hash) DO UPDATE SET
			subject_id  = EXCLUDED.subject_id,
			query       = EXCLUDED.query,
			success     = EXCLUDED.success,
			payload     = EXCLUDED.payload,
			compressed  = EXCLUDED.compressed,
			error       = EXCLUDED.error,
			cost        = EXCLUDED.cost,
			size_bytes  = EXCLUDED.size_bytes,
			response_ms = EXCLUDED.response_ms,
			created_at  = EXCLUDED.created_at`,
		string(q.SourceType), q.Hash, nullIfEmpty(q.SubjectID), q.Query, q.Success,
		q.Payload, q.Compressed, nullIfEmpty(q.Error), q.Cost, q.SizeBytes,
		q.Elapsed.Milliseconds(), q.CreatedAt,
	)
	return eris.Wrap(err, "postgres: upsert query")
}

func (s *PostgresStore) GetQuery(ctx context.Context, sourceType model.SourceType, hash string) (*model.CachedQuery, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT source_type, hash, subject_id, query, success, payload, compressed, error, cost, size_bytes, response_ms, created_at
		FROM query_cache WHERE source_type = $1 AND hash = $2`,
		string(sourceType), hash,
	)

	var (
		q          model.CachedQuery
		srcType    string
		subjectID  *string
		errMsg     *string
		responseMs int64
	)
	err := row.Scan(&srcType, &q.Hash, &subjectID, &q.Query, &q.Success, &q.Payload,
		&q.Compressed, &errMsg, &q.Cost, &q.SizeBytes, &responseMs, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get query")
	}
	q.SourceType = model.SourceType(srcType)
	if subjectID != nil {
		q.SubjectID = *subjectID
	}
	if errMsg != nil {
		q.Error = *errMsg
	}
	q.Elapsed = time.Duration(responseMs) * time.Millisecond
	return &q, nil
}

func (s *PostgresStore) DeleteQueriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM query_cache WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete queries before")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) DeleteQueriesBySource(ctx context.Context, sourceType model.SourceType) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM query_cache WHERE source_type = $1`, string(sourceType))
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete queries by source")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) DeleteQueriesBySubjects(ctx context.Context, subjectIDs []string) (int64, error) {
	if len(subjectIDs) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM query_cache WHERE subject_id = ANY($1)`, subjectIDs)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete queries by subjects")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) ClearQueries(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM query_cache`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: clear queries")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) QueryStats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{
		BySource: make(map[model.SourceType]SourceCacheStats),
	}

	rows, err := s.pool.Query(ctx, `
		SELECT source_type,
			COUNT(*),
			COALESCE(SUM(size_bytes), 0),
			COALESCE(SUM(CASE WHEN compressed THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN error IS NOT NULL AND error != '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(cost), 0)
		FROM query_cache GROUP BY source_type`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query stats")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			srcType              string
			entries, bytes       int64
			compressed, errCount int64
			cost                 float64
		)
		if err := rows.Scan(&srcType, &entries, &bytes, &compressed, &errCount, &cost); err != nil {
			return nil, eris.Wrap(err, "postgres: scan stats row")
		}
		stats.BySource[model.SourceType(srcType)] = SourceCacheStats{
			Entries: entries,
			Errors:  errCount,
			Cost:    cost,
		}
		stats.Entries += entries
		stats.TotalBytes += bytes
		stats.Compressed += compressed
		stats.Errors += errCount
		stats.TotalCost += cost
	}
	return stats, eris.Wrap(rows.Err(), "postgres: stats rows")
}

func (s *PostgresStore) ResetSubjectStatus(ctx context.Context, filter ResetFilter) (int64, error) {
	switch {
	case filter.All:
		tag, err := s.pool.Exec(ctx, `UPDATE subjects SET last_checked_at = NULL WHERE last_checked_at IS NOT NULL`)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: reset all subjects")
		}
		return tag.RowsAffected(), nil

	case len(filter.SubjectIDs) > 0:
		tag, err := s.pool.Exec(ctx, `UPDATE subjects SET last_checked_at = NULL WHERE id = ANY($1)`, filter.SubjectIDs)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: reset subjects by id")
		}
		return tag.RowsAffected(), nil

	case len(filter.SourceTypes) > 0:
		types := make([]string, len(filter.SourceTypes))
		for i, t := range filter.SourceTypes {
			types[i] = string(t)
		}
		tag, err := s.pool.Exec(ctx, `
			UPDATE subjects SET last_checked_at = NULL WHERE id IN
				(SELECT DISTINCT subject_id FROM query_cache WHERE source_type = ANY($1) AND subject_id IS NOT NULL)`,
			types)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: reset subjects by source")
		}
		affected := tag.RowsAffected()
		if _, err := s.pool.Exec(ctx, `DELETE FROM query_cache WHERE source_type = ANY($1)`, types); err != nil {
			return affected, eris.Wrap(err, "postgres: forget source answers")
		}
		return affected, nil

	default:
		return 0, nil
	}
}

func (s *PostgresStore) MarkSubjectChecked(ctx context.Context, subjectID, name string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subjects (id, name, last_checked_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, last_checked_at = EXCLUDED.last_checked_at`,
		subjectID, name, at.UTC())
	return eris.Wrap(err, "postgres: mark subject checked")
}

// Open constructs a Store from a driver name and DSN.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return NewSQLite(dsn)
	case "postgres", "postgresql":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.New(fmt.Sprintf("store: unknown driver %q", driver))
	}
}
