package enrich

import (
	"time"

	"github.com/chenders/deadonfilm-sub012/internal/model"
)

// Merge folds a successful lookup's fields into the result with
// first-success-wins semantics: a field set by an earlier (higher
// priority) source is never overwritten, whatever the later confidence.
// List fields are only accepted non-empty, so an earlier empty list does
// not block a later populated one. Returns how many fields were added.
func Merge(result *model.EnrichmentResult, sourceName string, sourceType model.SourceType, data map[string]any, confidence float64, now time.Time) int {
	added := 0
	for key, raw := range data {
		if raw == nil {
			continue
		}
		fv := model.FieldValue{
			Value:       raw,
			Source:      sourceName,
			SourceType:  sourceType,
			Confidence:  confidence,
			RetrievedAt: now,
		}

		if key == model.FieldCategories {
			if len(fv.Categories()) == 0 {
				continue
			}
			if prev, ok := result.Fields[key]; ok && len(prev.Categories()) > 0 {
				continue
			}
			result.Fields[key] = fv
			added++
			continue
		}

		if s, ok := raw.(string); ok && s == "" {
			continue
		}
		if result.Has(key) {
			continue
		}
		result.Fields[key] = fv
		added++
	}
	return added
}
