package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/chenders/deadonfilm-sub012/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testEntry(hash string) *model.CachedQuery {
	return &model.CachedQuery{
		Hash:       hash,
		SourceType: model.SourceWikipedia,
		SubjectID:  "subj-1",
		Query:      "john doe",
		Success:    true,
		Payload:    []byte(`{"circumstances":"fell off a cliff"}`),
		Cost:       0.001,
		SizeBytes:  37,
		Elapsed:    150 * time.Millisecond,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestSQLite_UpsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertQuery(ctx, testEntry("h1")))

	got, err := st.GetQuery(ctx, model.SourceWikipedia, "h1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "subj-1", got.SubjectID)
	assert.True(t, got.Success)
	assert.Equal(t, []byte(`{"circumstances":"fell off a cliff"}`), got.Payload)
	assert.Empty(t, got.Error)
	assert.Equal(t, 150*time.Millisecond, got.Elapsed)
}

func TestSQLite_Get_Miss(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetQuery(context.Background(), model.SourceWikipedia, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_Get_MissOnOtherSourceType(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertQuery(ctx, testEntry("h1")))

	got, err := st.GetQuery(ctx, model.SourceClaude, "h1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_Upsert_Overwrites(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertQuery(ctx, testEntry("h1")))

	updated := testEntry("h1")
	updated.Success = false
	updated.Payload = nil
	updated.Error = "no data found"
	require.NoError(t, st.UpsertQuery(ctx, updated))

	got, err := st.GetQuery(ctx, model.SourceWikipedia, "h1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Success)
	assert.Equal(t, "no data found", got.Error)

	// Upsert, not append: still one row.
	stats, err := st.QueryStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Entries)
}

func TestSQLite_DeleteQueriesBefore(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	old := testEntry("old")
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, st.UpsertQuery(ctx, old))
	require.NoError(t, st.UpsertQuery(ctx, testEntry("new")))

	n, err := st.DeleteQueriesBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := st.GetQuery(ctx, model.SourceWikipedia, "new")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSQLite_DeleteQueriesBySource(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertQuery(ctx, testEntry("h1")))
	claude := testEntry("h2")
	claude.SourceType = model.SourceClaude
	require.NoError(t, st.UpsertQuery(ctx, claude))

	n, err := st.DeleteQueriesBySource(ctx, model.SourceWikipedia)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := st.GetQuery(ctx, model.SourceClaude, "h2")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSQLite_DeleteQueriesBySubjects(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertQuery(ctx, testEntry("h1")))
	other := testEntry("h2")
	other.SubjectID = "subj-2"
	require.NoError(t, st.UpsertQuery(ctx, other))

	n, err := st.DeleteQueriesBySubjects(ctx, []string{"subj-1", "subj-99"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = st.DeleteQueriesBySubjects(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_ClearQueries(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertQuery(ctx, testEntry("h1")))
	require.NoError(t, st.UpsertQuery(ctx, testEntry("h2")))

	n, err := st.ClearQueries(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestSQLite_QueryStats(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	ok := testEntry("h1")
	require.NoError(t, st.UpsertQuery(ctx, ok))

	failed := testEntry("h2")
	failed.Success = false
	failed.Payload = nil
	failed.SizeBytes = 0
	failed.Error = "blocked"
	failed.Cost = 0.002
	require.NoError(t, st.UpsertQuery(ctx, failed))

	compressed := testEntry("h3")
	compressed.SourceType = model.SourceClaude
	compressed.Compressed = true
	require.NoError(t, st.UpsertQuery(ctx, compressed))

	stats, err := st.QueryStats(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 3, stats.Entries)
	assert.EqualValues(t, 1, stats.Compressed)
	assert.EqualValues(t, 1, stats.Errors)
	assert.InDelta(t, 0.004, stats.TotalCost, 1e-9)

	wiki := stats.BySource[model.SourceWikipedia]
	assert.EqualValues(t, 2, wiki.Entries)
	assert.EqualValues(t, 1, wiki.Errors)
}

func TestSQLite_ResetSubjectStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.MarkSubjectChecked(ctx, "subj-1", "John Doe", now))
	require.NoError(t, st.MarkSubjectChecked(ctx, "subj-2", "Jane Roe", now))

	n, err := st.ResetSubjectStatus(ctx, ResetFilter{SubjectIDs: []string{"subj-1"}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = st.ResetSubjectStatus(ctx, ResetFilter{All: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n) // subj-1 already cleared

	// Empty filter is a no-op.
	n, err = st.ResetSubjectStatus(ctx, ResetFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_ResetSubjectStatus_BySourceForgetsAnswers(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.MarkSubjectChecked(ctx, "subj-1", "John Doe", now))
	require.NoError(t, st.UpsertQuery(ctx, testEntry("h1")))

	n, err := st.ResetSubjectStatus(ctx, ResetFilter{SourceTypes: []model.SourceType{model.SourceWikipedia}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := st.GetQuery(ctx, model.SourceWikipedia, "h1")
	require.NoError(t, err)
	assert.Nil(t, got, "prior answers for the source should be forgotten")
}

func TestSQLite_ConcurrentUpserts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 8; i++ {
		hash := fmt.Sprintf("h%d", i)
		g.Go(func() error {
			return st.UpsertQuery(gctx, testEntry(hash))
		})
	}
	require.NoError(t, g.Wait())

	stats, err := st.QueryStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 8, stats.Entries)
}

func TestSQLite_MarkSubjectChecked_Upserts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.MarkSubjectChecked(ctx, "subj-1", "John Doe", time.Now().UTC()))
	require.NoError(t, st.MarkSubjectChecked(ctx, "subj-1", "John Doe", time.Now().UTC()))

	n, err := st.ResetSubjectStatus(ctx, ResetFilter{All: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
