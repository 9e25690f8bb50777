package source

import (
	"context"
	"fmt"
	"time"

	"github.com/chenders/deadonfilm-sub012/internal/cost"
	"github.com/chenders/deadonfilm-sub012/internal/model"
	"github.com/chenders/deadonfilm-sub012/pkg/anthropic"
)

const claudeSystemPrompt = `You are a research assistant specializing in the deaths of public figures.
Answer only from well-established public knowledge. If you do not know how
the person died, say so rather than guessing.`

// Claude is the AI-backed source querying an Anthropic model.
type Claude struct {
	client    anthropic.Client
	calc      *cost.Calculator
	model     string
	maxTokens int64
	available bool
	throttle  *Throttle
}

// NewClaude creates the Claude source. An empty API key marks the source
// unavailable so it is excluded at construction time.
func NewClaude(apiKey, modelID string, calc *cost.Calculator, minDelay time.Duration) *Claude {
	c := &Claude{
		calc:      calc,
		model:     modelID,
		maxTokens: 1024,
		available: apiKey != "",
		throttle:  NewThrottle(minDelay),
	}
	if c.available {
		c.client = anthropic.NewClient(apiKey)
	}
	return c
}

func (c *Claude) Name() string                   { return "claude-" + c.model }
func (c *Claude) Type() model.SourceType         { return model.SourceClaude }
func (c *Claude) Category() model.SourceCategory { return model.CategoryAI }
func (c *Claude) Reliability() float64           { return 0.75 }
func (c *Claude) Available() bool                { return c.available && c.client != nil }

// EstimatedCost assumes a typical prompt of ~600 input and ~300 output
// tokens for ordering AI sources by expected spend.
func (c *Claude) EstimatedCost() float64 {
	return c.calc.Claude(c.model, 600, 300)
}

func (c *Claude) Query(s model.Subject) string {
	return fmt.Sprintf("death circumstances of %s (%d)", s.Name, s.DeathYearOrZero())
}

func (c *Claude) Lookup(ctx context.Context, subject model.Subject) (*Lookup, error) {
	if err := c.throttle.Wait(ctx); err != nil {
		return &Lookup{Err: err.Error()}, err
	}

	prompt := buildDeathPrompt(subject)
	started := time.Now()
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    claudeSystemPrompt,
		Prompt:    prompt,
	})
	elapsed := time.Since(started)
	if err != nil {
		// API failures are transient at this layer; the cost of a failed
		// call is unknown, so nothing is recorded.
		return &Lookup{Elapsed: elapsed, Err: err.Error()}, nil
	}

	spent := c.calc.Claude(c.model, int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))

	answer, perr := parseModelAnswer(resp.Text)
	if perr != nil {
		return &Lookup{Elapsed: elapsed, Cost: spent, Err: perr.Error()}, nil
	}
	if !answer.Found {
		return &Lookup{Elapsed: elapsed, Cost: spent, Err: "model reported no knowledge"}, nil
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

var _ Source = (*Claude)(nil)
