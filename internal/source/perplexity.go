package source

import (
	"context"
	"fmt"
	"time"

	"github.com/chenders/deadonfilm-sub012/internal/cost"
	"github.com/chenders/deadonfilm-sub012/internal/model"
	"github.com/chenders/deadonfilm-sub012/pkg/perplexity"
)

const perplexitySystemPrompt = `You are a research assistant specializing in the deaths of public figures.
Use current web sources to answer. If no credible source describes how
the person died, say so rather than guessing.`

// Perplexity is the AI-backed source querying the Perplexity search API.
// Unlike Claude it is billed per query, not per token.
type Perplexity struct {
	client    perplexity.Client
	calc      *cost.Calculator
	model     string
	available bool
	throttle  *Throttle
}

// NewPerplexity creates the Perplexity source. An empty API key marks the
// source unavailable so it is excluded at construction time.
func NewPerplexity(apiKey, baseURL, modelID string, calc *cost.Calculator, minDelay time.Duration) *Perplexity {
	p := &Perplexity{
		calc:      calc,
		model:     modelID,
		available: apiKey != "",
		throttle:  NewThrottle(minDelay),
	}
	if p.available {
		opts := []perplexity.Option{}
		if baseURL != "" {
			opts = append(opts, perplexity.WithBaseURL(baseURL))
		}
		p.client = perplexity.NewClient(apiKey, opts...)
	}
	return p
}

func (p *Perplexity) Name() string                   { return "perplexity-" + p.model }
func (p *Perplexity) Type() model.SourceType         { return model.SourcePerplexity }
func (p *Perplexity) Category() model.SourceCategory { return model.CategoryAI }
func (p *Perplexity) Reliability() float64           { return 0.7 }
func (p *Perplexity) Available() bool                { return p.available && p.client != nil }
func (p *Perplexity) EstimatedCost() float64         { return p.calc.PerplexityQuery() }

func (p *Perplexity) Query(s model.Subject) string {
	return fmt.Sprintf("death circumstances of %s (%d)", s.Name, s.DeathYearOrZero())
}

func (p *Perplexity) Lookup(ctx context.Context, subject model.Subject) (*Lookup, error) {
	if err := p.throttle.Wait(ctx); err != nil {
		return &Lookup{Err: err.Error()}, err
	}

	started := time.Now()
	resp, err := p.client.Chat(ctx, perplexity.ChatRequest{
		Model:  p.model,
		System: perplexitySystemPrompt,
		Prompt: buildDeathPrompt(subject),
	})
	elapsed := time.Since(started)
	if err != nil {
		// Failed calls are not billed, so no cost is recorded.
		return &Lookup{Elapsed: elapsed, Err: err.Error()}, nil
	}

	// Flat per-query pricing: the call is paid for whatever it returned.
	spent := p.calc.PerplexityQuery()

	answer, perr := parseModelAnswer(resp.Text)
	if perr != nil {
		return &Lookup{Elapsed: elapsed, Cost: spent, Err: perr.Error()}, nil
	}
	if !answer.Found {
		return &Lookup{Elapsed: elapsed, Cost: spent, Err: "no credible source found"}, nil
	}

	data := answer.fields()
	if len(data) == 0 {
		return &Lookup{Elapsed: elapsed, Cost: spent, Err: "model returned no usable fields"}, nil
	}

	return &Lookup{
		Success:    true,
		Data:       data,
		Cost:       spent,
		Confidence: answer.usableConfidence(),
		Elapsed:    elapsed,
	}, nil
}

var _ Source = (*Perplexity)(nil)
