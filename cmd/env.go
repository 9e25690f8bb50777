package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/chenders/deadonfilm-sub012/internal/cache"
	"github.com/chenders/deadonfilm-sub012/internal/cost"
	"github.com/chenders/deadonfilm-sub012/internal/enrich"
	"github.com/chenders/deadonfilm-sub012/internal/source"
	"github.com/chenders/deadonfilm-sub012/internal/store"
	"github.com/chenders/deadonfilm-sub012/pkg/wikipedia"
)

// env bundles the wired subsystems for a command invocation.
type env struct {
	Store store.Store
	Cache *cache.QueryCache
}

func initEnv(ctx context.Context) (*env, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return &env{
		Store: st,
		Cache: cache.New(st),
	}, nil
}

func (e *env) Close() {
	_ = e.Store.Close()
}

// buildOrchestrator wires the reference sources, accountant, and cache
// executor into an orchestrator. Additional sources register here as they
// are implemented.
func (e *env) buildOrchestrator(reporter enrich.Reporter) *enrich.Orchestrator {
	calc := cost.NewCalculator(cfg.Pricing)

	sources := []source.Source{
		source.NewWikipedia(wikipedia.NewClient(), cfg.Enrich.SourceMinDelay),
		source.NewClaude(cfg.Anthropic.Key, cfg.Anthropic.Model, calc, cfg.Enrich.SourceMinDelay),
		source.NewPerplexity(cfg.Perplexity.Key, cfg.Perplexity.BaseURL, cfg.Perplexity.Model,
			calc, cfg.Enrich.SourceMinDelay),
	}

	acct := cost.NewAccountant(cfg.Limits)
	exec := source.NewExecutor(e.Cache)
	opts := enrich.Options{
		StopOnMatch:         cfg.Enrich.StopOnMatch,
		ConfidenceThreshold: cfg.Enrich.ConfidenceThreshold,
		SubjectDelay:        cfg.Enrich.SubjectDelay,
	}

	return enrich.New(sources, cfg.Sources.Toggles, exec, acct, opts, reporter).
		WithMarker(e.Store)
}
