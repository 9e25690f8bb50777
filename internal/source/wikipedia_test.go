package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenders/deadonfilm-sub012/internal/model"
	"github.com/chenders/deadonfilm-sub012/pkg/wikipedia"
)

// fakeWikiClient returns a canned summary or error.
type fakeWikiClient struct {
	summary *wikipedia.Summary
	err     error
}

func (f *fakeWikiClient) Summary(ctx context.Context, title string) (*wikipedia.Summary, error) {
	return f.summary, f.err
}

func TestWikipedia_Success(t *testing.T) {
	src := NewWikipedia(&fakeWikiClient{summary: &wikipedia.Summary{
		Title:   "John Doe",
		Extract: "John Doe (1910-1985) was an actor. He died of heart failure at his home in Los Angeles.",
		ContentURLs: wikipedia.ContentURLs{
			Desktop: wikipedia.PageURL{Page: "https://en.wikipedia.org/wiki/John_Doe"},
		},
	}}, 0)

	lk, err := src.Lookup(context.Background(), testSubject)
	require.NoError(t, err)
	require.True(t, lk.Success)
	assert.Contains(t, lk.Data[model.FieldCircumstances], "heart failure")
	assert.Equal(t, "https://en.wikipedia.org/wiki/John_Doe", lk.Data[model.FieldDetailsURL])
	assert.InDelta(t, 0.7, lk.Confidence, 1e-9)
	assert.Zero(t, lk.Cost)
}

func TestWikipedia_NoPageIsSoftFailure(t *testing.T) {
	src := NewWikipedia(&fakeWikiClient{}, 0)

	lk, err := src.Lookup(context.Background(), testSubject)
	require.NoError(t, err)
	assert.False(t, lk.Success)
	assert.Equal(t, "no page found", lk.Err)
}

func TestWikipedia_SummaryWithoutDeathIsRejected(t *testing.T) {
	src := NewWikipedia(&fakeWikiClient{summary: &wikipedia.Summary{
		Extract: "John Doe is an American actor known for his long television career and stage work.",
	}}, 0)

	lk, err := src.Lookup(context.Background(), testSubject)
	require.NoError(t, err)
	assert.False(t, lk.Success)
	assert.Equal(t, "summary has no death details", lk.Err)
}

func TestWikipedia_ShortExtractIsRejected(t *testing.T) {
	src := NewWikipedia(&fakeWikiClient{summary: &wikipedia.Summary{
		Extract: "He died.",
	}}, 0)

	lk, err := src.Lookup(context.Background(), testSubject)
	require.NoError(t, err)
	assert.False(t, lk.Success)
}

func TestWikipedia_BlockedStatusIsHardFailure(t *testing.T) {
	for _, code := range []int{403, 429} {
		src := NewWikipedia(&fakeWikiClient{err: &wikipedia.StatusError{Code: code}}, 0)

		lk, err := src.Lookup(context.Background(), testSubject)
		require.Error(t, err)
		assert.True(t, IsBlocked(err), "status %d should read as blocked", code)
		assert.False(t, lk.Success)
	}
}

func TestWikipedia_ChallengeBodyIsHardFailure(t *testing.T) {
	src := NewWikipedia(&fakeWikiClient{err: &wikipedia.StatusError{
		Code: 503,
		Body: "<html>Just a moment... checking your browser</html>",
	}}, 0)

	_, err := src.Lookup(context.Background(), testSubject)
	require.Error(t, err)
	assert.True(t, IsBlocked(err))
}

func TestWikipedia_TransientErrorIsSoftFailure(t *testing.T) {
	src := NewWikipedia(&fakeWikiClient{err: assert.AnError}, 0)

	lk, err := src.Lookup(context.Background(), testSubject)
	require.NoError(t, err)
	assert.False(t, lk.Success)
	assert.NotEmpty(t, lk.Err)
}

func TestWikipedia_Metadata(t *testing.T) {
	src := NewWikipedia(&fakeWikiClient{}, 0)

	assert.Equal(t, model.SourceWikipedia, src.Type())
	assert.Equal(t, model.CategoryFree, src.Category())
	assert.Zero(t, src.EstimatedCost())
	assert.True(t, src.Available())
	assert.Equal(t, "John Doe", src.Query(testSubject))

	assert.False(t, NewWikipedia(nil, 0).Available())
}
