package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Pass 1 request parameters.
const (
	conceptsMaxTokens      int32   = 2600
	conceptsTemperature    float32 = 0.35
	conceptsFixMaxTokens   int32   = 2200
	conceptsFixTemperature float32 = 0.2
)

const conceptStage = "concept extraction"

// Concept is one atomic idea extracted from the source text. It lives only
// for the duration of a run.
type Concept struct {
	Order      int    `json:"order"`
	Title      string `json:"title"`
	KeyInsight string `json:"key_insight"`
	Importance string `json:"importance"`
}

// wireConcept is what the model sends. Its order claim is ignored.
type wireConcept struct {
	Title      string `json:"title"`
	KeyInsight string `json:"key_insight"`
	Importance string `json:"importance"`
}

// ConceptExtractor runs pass 1: raw text to exactly N concepts.
type ConceptExtractor struct {
	invoker   Invoker
	extractor *Extractor
	logger    *slog.Logger
}

// NewConceptExtractor creates a ConceptExtractor.
func NewConceptExtractor(invoker Invoker, extractor *Extractor, logger *slog.Logger) *ConceptExtractor {
	return &ConceptExtractor{
		invoker:   invoker,
		extractor: extractor,
		logger:    logger.With("component", "concept_extractor"),
	}
}

// Extract returns exactly n concepts, ordered 1..n by position.
func (c *ConceptExtractor) Extract(ctx context.Context, text string, n int) ([]Concept, error) {
	p := pass{
		stage:     conceptStage,
		invoker:   c.invoker,
		extractor: c.extractor,
		logger:    c.logger,
		strategies: []strategy{
			{
				name: "primary",
				build: func(json.RawMessage) (Request, error) {
					prompt, err := render("concepts.tmpl", conceptsData{Count: n, Content: text})
					return Request{Prompt: prompt, MaxTokens: conceptsMaxTokens, Temperature: conceptsTemperature}, err
				},
			},
			{
				name: "corrective",
				build: func(draft json.RawMessage) (Request, error) {
					prompt, err := render("concepts_fix.tmpl", conceptsFixData{Count: n, Draft: string(draft)})
					return Request{Prompt: prompt, MaxTokens: conceptsFixMaxTokens, Temperature: conceptsFixTemperature}, err
				},
			},
		},
	}

	items, err := p.run(ctx, n)
	if err != nil {
		return nil, err
	}

	concepts := make([]Concept, len(items))
	for i, item := range items {
		concept, err := decodeConcept(item)
		if err != nil {
			return nil, fmt.Errorf("%w: concept %d: %v", ErrParse, i+1, err)
		}
		concept.Order = i + 1
		concepts[i] = concept
	}
	return concepts, nil
}

func decodeConcept(raw json.RawMessage) (Concept, error) {
	var title string
	if err := json.Unmarshal(raw, &title); err == nil {
		return Concept{Title: strings.TrimSpace(title)}, nil
	}

	var w wireConcept
	if err := json.Unmarshal(raw, &w); err != nil {
		return Concept{}, err
	}
	return Concept{
		Title:      strings.TrimSpace(w.Title),
		KeyInsight: strings.TrimSpace(w.KeyInsight),
		Importance: strings.TrimSpace(w.Importance),
	}, nil
}
