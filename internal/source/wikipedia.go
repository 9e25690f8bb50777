package source

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chenders/deadonfilm-sub012/internal/model"
	"github.com/chenders/deadonfilm-sub012/pkg/wikipedia"
)

// deathMarkers gate the quality check: a summary that never mentions the
// death is useless for circumstances enrichment.
var deathMarkers = []string{
	"died", "death", "killed", "passed away", "suicide", "murdered",
	"drowned", "overdose", "accident", "assassinat", "succumbed",
}

// Wikipedia is the free summary source backed by the REST API.
type Wikipedia struct {
	client   wikipedia.Client
	throttle *Throttle
}

// NewWikipedia creates the Wikipedia source with the given minimum
// inter-request delay.
func NewWikipedia(client wikipedia.Client, minDelay time.Duration) *Wikipedia {
	return &Wikipedia{
		client:   client,
		throttle: NewThrottle(minDelay),
	}
}

func (w *Wikipedia) Name() string                   { return "wikipedia-summary" }
func (w *Wikipedia) Type() model.SourceType         { return model.SourceWikipedia }
func (w *Wikipedia) Category() model.SourceCategory { return model.CategoryFree }
func (w *Wikipedia) EstimatedCost() float64         { return 0 }
func (w *Wikipedia) Reliability() float64           { return 0.85 }
func (w *Wikipedia) Available() bool                { return w.client != nil }
func (w *Wikipedia) Query(s model.Subject) string   { return s.Name }

func (w *Wikipedia) Lookup(ctx context.Context, subject model.Subject) (*Lookup, error) {
	if err := w.throttle.Wait(ctx); err != nil {
		return &Lookup{Err: err.Error()}, err
	}

	started := time.Now()
	summary, err := w.client.Summary(ctx, subject.Name)
	elapsed := time.Since(started)

	if err != nil {
		var se *wikipedia.StatusError
		if errors.As(err, &se) && (se.Code == 403 || se.Code == 429 || LooksBlocked(se.Body)) {
			blocked := &BlockedError{Source: w.Name(), Status: se.Code, Detail: "challenge response"}
			return &Lookup{Elapsed: elapsed, Err: blocked.Error()}, blocked
		}
		// Transient network failure: soft, no retry here.
		return &Lookup{Elapsed: elapsed, Err: err.Error()}, nil
	}
	if summary == nil {
		return &Lookup{Elapsed: elapsed, Err: "no page found"}, nil
	}

	extract := strings.TrimSpace(summary.Extract)
	if !mentionsDeath(extract) {
		return &Lookup{Elapsed: elapsed, Err: "summary has no death details"}, nil
	}

	data := map[string]any{
		model.FieldCircumstances: extract,
	}
	if summary.ContentURLs.Desktop.Page != "" {
		data[model.FieldDetailsURL] = summary.ContentURLs.Desktop.Page
	}
	return &Lookup{
		Success:    true,
		Data:       data,
		Confidence: 0.7,
		Elapsed:    elapsed,
	}, nil
}

func mentionsDeath(text string) bool {
	if len(text) < 40 {
		return false
	}
	lower := strings.ToLower(text)
	for _, m := range deathMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

var _ Source = (*Wikipedia)(nil)
