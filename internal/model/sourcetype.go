package model

// SourceType is the closed set of enrichment source families. Cost and
// hit-rate accumulators key on it so every breakdown can be initialized
// exhaustively.
type SourceType string

const (
	SourceWikipedia   SourceType = "wikipedia"
	SourceWikidata    SourceType = "wikidata"
	SourceFindAGrave  SourceType = "findagrave"
	SourceObituary    SourceType = "obituary"
	SourceNewsArchive SourceType = "newsarchive"
	SourceWebSearch   SourceType = "websearch"
	SourceClaude      SourceType = "claude"
	SourcePerplexity  SourceType = "perplexity"
)

// AllSourceTypes returns every source type in a stable order.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceWikipedia,
		SourceWikidata,
		SourceFindAGrave,
		SourceObituary,
		SourceNewsArchive,
		SourceWebSearch,
		SourceClaude,
		SourcePerplexity,
	}
}

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool {
	for _, k := range AllSourceTypes() {
		if t == k {
			return true
		}
	}
	return false
}

// SourceCategory groups sources for config-driven enablement.
type SourceCategory string

const (
	CategoryFree SourceCategory = "free"
	CategoryPaid SourceCategory = "paid"
	CategoryAI   SourceCategory = "ai"
)
