package source

import (
	"sort"

	"go.uber.org/zap"

	"github.com/chenders/deadonfilm-sub012/internal/model"
)

// Toggles enables or disables whole source categories.
type Toggles struct {
	Free bool `yaml:"free" mapstructure:"free"`
	Paid bool `yaml:"paid" mapstructure:"paid"`
	AI   bool `yaml:"ai" mapstructure:"ai"`
}

// Order builds the fixed priority list for a run: free sources first in
// descending reliability, then paid sources in descending reliability,
// then AI sources ascending by estimated cost. Sources whose category is
// disabled or whose Available() check fails are excluded here, once, not
// attempted-and-skipped at run time. The returned order is stable for
// sources that tie.
func Order(sources []Source, toggles Toggles) []Source {
	var free, paid, ai []Source
	for _, s := range sources {
		if !s.Available() {
			zap.L().Info("source excluded: unavailable", zap.String("source", s.Name()))
			continue
		}
		switch s.Category() {
		case model.CategoryFree:
			if toggles.Free {
				free = append(free, s)
			}
		case model.CategoryPaid:
			if toggles.Paid {
				paid = append(paid, s)
			}
		case model.CategoryAI:
			if toggles.AI {
				ai = append(ai, s)
			}
		}
	}

	sort.SliceStable(free, func(i, j int) bool { return free[i].Reliability() > free[j].Reliability() })
	sort.SliceStable(paid, func(i, j int) bool { return paid[i].Reliability() > paid[j].Reliability() })
	sort.SliceStable(ai, func(i, j int) bool { return ai[i].EstimatedCost() < ai[j].EstimatedCost() })

	ordered := make([]Source, 0, len(free)+len(paid)+len(ai))
	ordered = append(ordered, free...)
	ordered = append(ordered, paid...)
	ordered = append(ordered, ai...)

	names := make([]string, len(ordered))
	for i, s := range ordered {
		names[i] = s.Name()
	}
	zap.L().Debug("source order built", zap.Strings("order", names))

	return ordered
}
