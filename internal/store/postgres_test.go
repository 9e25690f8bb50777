package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenders/deadonfilm-sub012/internal/model"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgres_UpsertQuery(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO query_cache")).
		WithArgs("wikipedia", "h1", "subj-1", "john doe", true,
			[]byte(`{}`), false, nil, 0.001, 2, int64(150), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := st.UpsertQuery(context.Background(), &model.CachedQuery{
		Hash:       "h1",
		SourceType: model.SourceWikipedia,
		SubjectID:  "subj-1",
		Query:      "john doe",
		Success:    true,
		Payload:    []byte(`{}`),
		Cost:       0.001,
		SizeBytes:  2,
		Elapsed:    150 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetQuery(t *testing.T) {
	st, mock := newMockPostgresStore(t)
	created := time.Now().UTC()
	subjectID := "subj-1"

	mock.ExpectQuery(regexp.QuoteMeta("FROM query_cache WHERE source_type = $1 AND hash = $2")).
		WithArgs("wikipedia", "h1").
		WillReturnRows(pgxmock.NewRows([]string{
			"source_type", "hash", "subject_id", "query", "success", "payload",
			"compressed", "error", "cost", "size_bytes", "response_ms", "created_at",
		}).AddRow("wikipedia", "h1", &subjectID, "john doe", true, []byte(`{}`),
			false, (*string)(nil), 0.001, 2, int64(150), created))

	got, err := st.GetQuery(context.Background(), model.SourceWikipedia, "h1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.SourceWikipedia, got.SourceType)
	assert.Equal(t, "subj-1", got.SubjectID)
	assert.Empty(t, got.Error)
	assert.Equal(t, 150*time.Millisecond, got.Elapsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetQuery_Miss(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM query_cache WHERE source_type = $1 AND hash = $2")).
		WithArgs("wikipedia", "nope").
		WillReturnError(pgx.ErrNoRows)

	got, err := st.GetQuery(context.Background(), model.SourceWikipedia, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteQueriesBefore(t *testing.T) {
	st, mock := newMockPostgresStore(t)
	cutoff := time.Now().UTC().Add(-24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM query_cache WHERE created_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := st.DeleteQueriesBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteQueriesBySubjects(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM query_cache WHERE subject_id = ANY($1)")).
		WithArgs([]string{"subj-1", "subj-2"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	n, err := st.DeleteQueriesBySubjects(context.Background(), []string{"subj-1", "subj-2"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	// Empty list never touches the pool.
	n, err = st.DeleteQueriesBySubjects(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_QueryStats(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM query_cache GROUP BY source_type")).
		WillReturnRows(pgxmock.NewRows([]string{
			"source_type", "count", "bytes", "compressed", "errors", "cost",
		}).
			AddRow("wikipedia", int64(10), int64(4096), int64(2), int64(1), 0.0).
			AddRow("claude", int64(4), int64(1024), int64(0), int64(0), 0.02))

	stats, err := st.QueryStats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 14, stats.Entries)
	assert.EqualValues(t, 5120, stats.TotalBytes)
	assert.EqualValues(t, 2, stats.Compressed)
	assert.EqualValues(t, 1, stats.Errors)
	assert.InDelta(t, 0.02, stats.TotalCost, 1e-9)
	assert.EqualValues(t, 4, stats.BySource[model.SourceClaude].Entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ResetSubjectStatus_BySource(t *testing.T) {
	st, mock := newMockPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE subjects SET last_checked_at = NULL WHERE id IN")).
		WithArgs([]string{"claude"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM query_cache WHERE source_type = ANY($1)")).
		WithArgs([]string{"claude"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := st.ResetSubjectStatus(context.Background(), ResetFilter{
		SourceTypes: []model.SourceType{model.SourceClaude},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_MarkSubjectChecked(t *testing.T) {
	st, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subjects")).
		WithArgs("subj-1", "John Doe", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, st.MarkSubjectChecked(context.Background(), "subj-1", "John Doe", now))
	assert.NoError(t, mock.ExpectationsWereMet())
}
