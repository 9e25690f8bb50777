package source

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chenders/deadonfilm-sub012/internal/model"
)

// answerShape is the response format instruction appended to every AI
// source prompt.
const answerShape = `

Respond with a single JSON object and nothing else:
{"found": bool, "circumstances": "...", "cause_of_death": "...", "manner_of_death": "...", "place_of_death": "...", "categories": ["..."], "confidence": 0.0-1.0}`

// modelAnswer is the JSON shape AI sources ask their model to produce.
type modelAnswer struct {
	Found         bool     `json:"found"`
	Circumstances string   `json:"circumstances"`
	CauseOfDeath  string   `json:"cause_of_death"`
	MannerOfDeath string   `json:"manner_of_death"`
	PlaceOfDeath  string   `json:"place_of_death"`
	Categories    []string `json:"categories"`
	Confidence    float64  `json:"confidence"`
}

// fields maps the populated answer fields to result keys.
func (a *modelAnswer) fields() map[string]any {
	data := make(map[string]any)
	put := func(key, val string) {
		if v := strings.TrimSpace(val); v != "" {
			data[key] = v
		}
	}
	put(model.FieldCircumstances, a.Circumstances)
	put(model.FieldCauseOfDeath, a.CauseOfDeath)
	put(model.FieldMannerOfDeath, a.MannerOfDeath)
	put(model.FieldPlaceOfDeath, a.PlaceOfDeath)
	if len(a.Categories) > 0 {
		data[model.FieldCategories] = a.Categories
	}
	return data
}

// usableConfidence replaces an out-of-range model confidence with a
// neutral default.
func (a *modelAnswer) usableConfidence() float64 {
	if a.Confidence <= 0 || a.Confidence > 1 {
		return 0.5
	}
	return a.Confidence
}

// buildDeathPrompt phrases the lookup question an AI source sends.
func buildDeathPrompt(s model.Subject) string {
	var b strings.Builder
	fmt.Fprintf(&b, "How did %s die?", s.Name)
	if y := s.DeathYearOrZero(); y > 0 {
		fmt.Fprintf(&b, " They died in %d.", y)
	}
	for k, v := range s.Known {
		fmt.Fprintf(&b, " Known %s: %s.", k, v)
	}
	b.WriteString(answerShape)
	return b.String()
}

// parseModelAnswer extracts the JSON object from a completion, tolerating
// code fences and surrounding prose.
func parseModelAnswer(text string) (*modelAnswer, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in completion")
	}
	var a modelAnswer
	if err := json.Unmarshal([]byte(text[start:end+1]), &a); err != nil {
		return nil, fmt.Errorf("parse completion: %w", err)
	}
	return &a, nil
}
