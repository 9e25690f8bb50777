package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/chenders/deadonfilm-sub012/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS query_cache (
	source_type TEXT NOT NULL,
	hash        TEXT NOT NULL,
	subject_id  TEXT,
	query       TEXT NOT NULL,
	success     INTEGER NOT NULL,
	payload     BLOB,
	compressed  INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	cost        REAL NOT NULL DEFAULT 0,
	size_bytes  INTEGER NOT NULL DEFAULT 0,
	response_ms INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL,
	PRIMARY KEY (source_type, hash)
);

CREATE TABLE IF NOT EXISTS subjects (
	id              TEXT PRIMARY KEY,
	name            TEXT,
	last_checked_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_query_cache_subject ON query_cache(subject_id);
CREATE INDEX IF NOT EXISTS idx_query_cache_created ON query_cache(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertQuery(ctx context.Context, q *model.CachedQuery) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_cache
			(source_type, hash, subject_id, query, success, payload, compressed, error, cost, size_bytes, response_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_type, hash) DO UPDATE SET
			subject_id  = excluded.subject_id,
			query       = excluded.query,
			success     = excluded.success,
			payload     = excluded.payload,
			compressed  = excluded.compressed,
			error       = excluded.error,
			cost        = excluded.cost,
			size_bytes  = excluded.size_bytes,
			response_ms = excluded.response_ms,
			created_at  = excluded.created_at`,
		string(q.SourceType), q.Hash, nullIfEmpty(q.SubjectID), q.Query, q.Success,
		q.Payload, q.Compressed, nullIfEmpty(q.Error), q.Cost, q.SizeBytes,
		q.Elapsed.Milliseconds(), q.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: upsert query")
}

func (s *SQLiteStore) GetQuery(ctx context.Context, sourceType model.SourceType, hash string) (*model.CachedQuery, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT source_type, hash, subject_id, query, success, payload, compressed, error, cost, size_bytes, response_ms, created_at
		FROM query_cache WHERE source_type = ? AND hash = ?`,
		string(sourceType), hash,
	)

	var (
		q          model.CachedQuery
		srcType    string
		subjectID  sql.NullString
		errMsg     sql.NullString
		responseMs int64
	)
	err := row.Scan(&srcType, &q.Hash, &subjectID, &q.Query, &q.Success, &q.Payload,
		&q.Compressed, &errMsg, &q.Cost, &q.SizeBytes, &responseMs, &q.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get query")
	}
	q.SourceType = model.SourceType(srcType)
	q.SubjectID = subjectID.String
	q.Error = errMsg.String
	q.Elapsed = time.Duration(responseMs) * time.Millisecond
	return &q, nil
}

func (s *SQLiteStore) DeleteQueriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM query_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete queries before")
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) DeleteQueriesBySource(ctx context.Context, sourceType model.SourceType) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM query_cache WHERE source_type = ?`, string(sourceType))
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete queries by source")
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) DeleteQueriesBySubjects(ctx context.Context, subjectIDs []string) (int64, error) {
	if len(subjectIDs) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(subjectIDs)), ",")
	args := make([]any, len(subjectIDs))
	for i, id := range subjectIDs {
		args[i] = id
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM query_cache WHERE subject_id IN (%s)`, placeholders), args...)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete queries by subjects")
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) ClearQueries(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM query_cache`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: clear queries")
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) QueryStats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{
		BySource: make(map[model.SourceType]SourceCacheStats),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source_type,
			COUNT(*),
			COALESCE(SUM(size_bytes), 0),
			COALESCE(SUM(compressed), 0),
			COALESCE(SUM(CASE WHEN error IS NOT NULL AND error != '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(cost), 0)
		FROM query_cache GROUP BY source_type`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query stats")
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
			return nil, eris.Wrap(err, "sqlite: scan stats row")
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
	return stats, eris.Wrap(rows.Err(), "sqlite: stats rows")
}

func (s *SQLiteStore) ResetSubjectStatus(ctx context.Context, filter ResetFilter) (int64, error) {
	switch {
	case filter.All:
		res, err := s.db.ExecContext(ctx, `UPDATE subjects SET last_checked_at = NULL WHERE last_checked_at IS NOT NULL`)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: reset all subjects")
		}
		return res.RowsAffected()

	case len(filter.SubjectIDs) > 0:
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.SubjectIDs)), ",")
		args := make([]any, len(filter.SubjectIDs))
		for i, id := range filter.SubjectIDs {
			args[i] = id
		}
		res, err := s.db.ExecContext(ctx,
			fmt.Sprintf(`UPDATE subjects SET last_checked_at = NULL WHERE id IN (%s)`, placeholders), args...)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: reset subjects by id")
		}
		return res.RowsAffected()

	case len(filter.SourceTypes) > 0:
		// Forget those sources' answers, then clear markers for every
		// subject that had one so selection revisits them.
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.SourceTypes)), ",")
		args := make([]any, len(filter.SourceTypes))
		for i, t := range filter.SourceTypes {
			args[i] = string(t)
		}
		res, err := s.db.ExecContext(ctx,
			fmt.Sprintf(`UPDATE subjects SET last_checked_at = NULL WHERE id IN
				(SELECT DISTINCT subject_id FROM query_cache WHERE source_type IN (%s) AND subject_id IS NOT NULL)`,
				placeholders), args...)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: reset subjects by source")
		}
		affected, _ := res.RowsAffected()
		if _, err := s.db.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM query_cache WHERE source_type IN (%s)`, placeholders), args...); err != nil {
			return affected, eris.Wrap(err, "sqlite: forget source answers")
		}
		return affected, nil

	default:
		return 0, nil
	}
}

// MarkSubjectChecked records a last-checked marker for the subject,
// inserting the row if batch selection has not seen it yet.
func (s *SQLiteStore) MarkSubjectChecked(ctx context.Context, subjectID, name string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subjects (id, name, last_checked_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, last_checked_at = excluded.last_checked_at`,
		subjectID, name, at.UTC())
	return eris.Wrap(err, "sqlite: mark subject checked")
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
