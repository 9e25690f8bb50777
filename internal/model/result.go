package model

import "time"

// Field keys an EnrichmentResult may carry. Circumstances is the primary
// narrative field; Categories is the only list-valued field.
const (
	FieldCircumstances = "circumstances"
	FieldCauseOfDeath  = "cause_of_death"
	FieldMannerOfDeath = "manner_of_death"
	FieldPlaceOfDeath  = "place_of_death"
	FieldCategories    = "categories"
	FieldDetailsURL    = "details_url"
)

// ScalarFieldKeys returns the string-valued field keys in merge order.
func ScalarFieldKeys() []string {
	return []string{
		FieldCircumstances,
		FieldCauseOfDeath,
		FieldMannerOfDeath,
		FieldPlaceOfDeath,
		FieldDetailsURL,
	}
}

// FieldValue is a single enriched field with its provenance.
type FieldValue struct {
	Value       any        `json:"value"`
	Source      string     `json:"source"`
	SourceType  SourceType `json:"source_type"`
	Confidence  float64    `json:"confidence"`
	RetrievedAt time.Time  `json:"retrieved_at"`
}

// Categories returns the value as a string list, or nil if the field does
// not hold one.
func (fv FieldValue) Categories() []string {
	switch v := fv.Value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// EnrichmentResult holds the merged per-subject outcome of one run.
// A field, once set, is owned by the source that set it for the rest of
// the run.
type EnrichmentResult struct {
	SubjectID string                `json:"subject_id"`
	Fields    map[string]FieldValue `json:"fields"`
}

// NewEnrichmentResult returns an empty result for the subject.
func NewEnrichmentResult(subjectID string) *EnrichmentResult {
	return &EnrichmentResult{
		SubjectID: subjectID,
		Fields:    make(map[string]FieldValue),
	}
}

// Empty reports whether no field was enriched.
func (r *EnrichmentResult) Empty() bool {
	return len(r.Fields) == 0
}

// Has reports whether the field key is set.
func (r *EnrichmentResult) Has(key string) bool {
	_, ok := r.Fields[key]
	return ok
}

// Sufficient reports whether the result satisfies the stop-on-match policy:
// the primary narrative field or at least one category tag is present.
func (r *EnrichmentResult) Sufficient() bool {
	if r.Has(FieldCircumstances) {
		return true
	}
	if fv, ok := r.Fields[FieldCategories]; ok && len(fv.Categories()) > 0 {
		return true
	}
	return false
}

// SourceAttemptRecord is one attempted source for one subject.
type SourceAttemptRecord struct {
	Source     string        `json:"source"`
	SourceType SourceType    `json:"source_type"`
	Success    bool          `json:"success"`
	FromCache  bool          `json:"from_cache"`
	Elapsed    time.Duration `json:"elapsed"`
	Cost       float64       `json:"cost"`
	Error      string        `json:"error,omitempty"`
}
