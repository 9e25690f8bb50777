package enrich

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chenders/deadonfilm-sub012/internal/model"
)

// maxExampleErrors caps the error samples in the final summary.
const maxExampleErrors = 5

// FormatSummary renders the human-readable end-of-batch report.
func FormatSummary(stats *model.BatchStats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Batch Summary (%s)\n", stats.BatchID)
	fmt.Fprintf(&b, "- Subjects processed: %d\n", stats.SubjectsProcessed)
	fmt.Fprintf(&b, "- Subjects enriched:  %d\n", stats.SubjectsEnriched)
	fmt.Fprintf(&b, "- Fill rate:          %.1f%%\n", stats.FillRate*100)
	fmt.Fprintf(&b, "- Elapsed:            %s\n", stats.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&b, "- Total cost:         $%.4f\n\n", stats.Cost.Total)

	b.WriteString("## Source hit rates\n")
	for _, t := range model.AllSourceTypes() {
		tally := stats.Sources[t]
		if tally.Attempts == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %-12s %d/%d (%.0f%%, %d cached)\n",
			string(t)+":", tally.Successes, tally.Attempts, tally.HitRate()*100, tally.CacheHits)
	}
	b.WriteString("\n")

	b.WriteString("## Cost by source\n")
	type sourceCost struct {
		t model.SourceType
		c float64
	}
	costs := make([]sourceCost, 0, len(stats.Cost.BySource))
	for t, c := range stats.Cost.BySource {
		if c > 0 {
			costs = append(costs, sourceCost{t, c})
		}
	}
	sort.Slice(costs, func(i, j int) bool { return costs[i].c > costs[j].c })
	if len(costs) == 0 {
		b.WriteString("No cost incurred.\n")
	}
	for _, sc := range costs {
		fmt.Fprintf(&b, "- %-12s $%.4f\n", string(sc.t)+":", sc.c)
	}
	b.WriteString("\n")

	if len(stats.Errors) > 0 {
		fmt.Fprintf(&b, "## Errors (%d)\n", len(stats.Errors))
		shown := stats.Errors
		if len(shown) > maxExampleErrors {
			shown = shown[:maxExampleErrors]
		}
		for _, e := range shown {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		if extra := len(stats.Errors) - maxExampleErrors; extra > 0 {
			fmt.Fprintf(&b, "... and %d more\n", extra)
		}
	}

	return b.String()
}
