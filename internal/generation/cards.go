package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/phrazzld/loopmind-api/internal/config"
	"github.com/phrazzld/loopmind-api/internal/domain"
)

// Pass 2 request parameters.
const (
	cardsMaxTokens      int32   = 4200
	cardsTemperature    float32 = 0.35
	cardsFixMaxTokens   int32   = 4200
	cardsFixTemperature float32 = 0.25
)

const cardStage = "card design"

// CardDesigner runs pass 2: N concepts to exactly N cards, one per concept
// in the same order.
type CardDesigner struct {
	invoker   Invoker
	extractor *Extractor
	maxImages int
	logger    *slog.Logger
}

// NewCardDesigner creates a CardDesigner bound to the image ceiling of cfg.
func NewCardDesigner(invoker Invoker, extractor *Extractor, cfg config.GenerationConfig, logger *slog.Logger) *CardDesigner {
	return &CardDesigner{
		invoker:   invoker,
		extractor: extractor,
		maxImages: cfg.MaxImages,
		logger:    logger.With("component", "card_designer"),
	}
}

// Design returns exactly n cards decoded leniently from the model output.
// The cards still need the guardrail passes before they are deliverable.
func (d *CardDesigner) Design(ctx context.Context, concepts []Concept, n int, topicHint string, allowText bool) ([]*domain.Card, error) {
	pretty, err := json.MarshalIndent(concepts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode concepts: %v", ErrConfig, err)
	}
	compact, err := json.Marshal(concepts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode concepts: %v", ErrConfig, err)
	}

	p := pass{
		stage:     cardStage,
		invoker:   d.invoker,
		extractor: d.extractor,
		logger:    d.logger,
		strategies: []strategy{
			{
				name: "primary",
				build: func(json.RawMessage) (Request, error) {
					prompt, err := render("cards.tmpl", newCardsData(n, d.maxImages, allowText, topicHint, string(pretty)))
					return Request{Prompt: prompt, MaxTokens: cardsMaxTokens, Temperature: cardsTemperature}, err
				},
			},
			{
				name: "corrective",
				build: func(draft json.RawMessage) (Request, error) {
					prompt, err := render("cards_fix.tmpl", cardsFixData{
						Count:     n,
						TopicHint: topicHint,
						Concepts:  string(compact),
						Draft:     string(draft),
					})
					return Request{Prompt: prompt, MaxTokens: cardsFixMaxTokens, Temperature: cardsFixTemperature}, err
				},
			},
		},
	}

	items, err := p.run(ctx, n)
	if err != nil {
		return nil, err
	}

	cards := make([]*domain.Card, len(items))
	for i, item := range items {
		card, err := decodeCard(item)
		if err != nil {
			return nil, fmt.Errorf("%w: card %d: %v", ErrParse, i+1, err)
		}
		cards[i] = card
	}
	return cards, nil
}

// wireCard is the loosely typed shape the model sends.
type wireCard struct {
	Title            json.RawMessage `json:"title"`
	Hook             json.RawMessage `json:"hook"`
	PostType         json.RawMessage `json:"post_type"`
	MicroExplanation json.RawMessage `json:"micro_explanation"`
	Flashcard        json.RawMessage `json:"flashcard"`
	Quiz             json.RawMessage `json:"quiz"`
	VisualType       json.RawMessage `json:"visual_type"`
	VisualPayload    json.RawMessage `json:"visual_payload"`
	ImageStyle       json.RawMessage `json:"image_style"`
	ImageLabels      json.RawMessage `json:"image_labels"`
	ImagePrompt      json.RawMessage `json:"image_prompt"`
	Takeaways        json.RawMessage `json:"takeaways"`
	MasteryQuestion  json.RawMessage `json:"mastery_question"`
}

func decodeCard(raw json.RawMessage) (*domain.Card, error) {
	if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '{' {
		return nil, errors.New("expected an object")
	}

	var w wireCard
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}

	c := &domain.Card{
		Title:            decodeText(w.Title),
		Hook:             decodeText(w.Hook),
		MicroExplanation: decodeList(w.MicroExplanation, splitSentences),
		Flashcard:        decodeFlashcard(w.Flashcard),
		Quiz:             decodeQuiz(w.Quiz),
		VisualType:       domain.VisualType(normalizeEnum(decodeText(w.VisualType))),
		VisualPayload:    decodeObject(w.VisualPayload),
		ImageStyle:       domain.ImageStyle(normalizeEnum(decodeText(w.ImageStyle))),
		ImageLabels:      decodeList(w.ImageLabels, splitLabels),
		ImagePrompt:      domain.ParseImagePrompt(decodeText(w.ImagePrompt)),
		Takeaways:        decodeList(w.Takeaways, splitLines),
		MasteryQuestion:  decodeText(w.MasteryQuestion),
	}
	c.PostType = inferPostType(domain.PostType(normalizeEnum(decodeText(w.PostType))), c)
	return c, nil
}

// inferPostType keeps a known post type and otherwise picks the type whose
// content the card carries.
func inferPostType(t domain.PostType, c *domain.Card) domain.PostType {
	switch {
	case t.Valid():
		return t
	case c.Quiz != nil:
		return domain.PostTypeQuiz
	case c.Flashcard != nil:
		return domain.PostTypeFlashcard
	case c.ImagePrompt != nil:
		return domain.PostTypeImage
	default:
		return domain.PostTypeFlashcard
	}
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// decodeText reads a string; other scalars keep their JSON text.
func decodeText(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

// decodeList reads an array of scalars, or splits a single string.
func decodeList(raw json.RawMessage, split func(string) []string) []string {
	if isNull(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return split(decodeText(raw))
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := decodeText(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func decodeObject(raw json.RawMessage) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func decodeFlashcard(raw json.RawMessage) *domain.Flashcard {
	if isNull(raw) {
		return nil
	}

	var named struct {
		Question *string `json:"question"`
		Answer   *string `json:"answer"`
	}
	if err := json.Unmarshal(raw, &named); err == nil && named.Question != nil && named.Answer != nil {
		return &domain.Flashcard{Question: *named.Question, Answer: *named.Answer}
	}

	var f domain.Flashcard
	if err := json.Unmarshal(raw, &f); err != nil || f.Question == "" {
		return nil
	}
	return &f
}

func decodeQuiz(raw json.RawMessage) *domain.Quiz {
	if isNull(raw) {
		return nil
	}
	var w struct {
		Question    json.RawMessage `json:"question"`
		Choices     json.RawMessage `json:"choices"`
		AnswerIndex json.RawMessage `json:"answer_index"`
		Explanation json.RawMessage `json:"explanation"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil
	}
	q := &domain.Quiz{
		Question:    decodeText(w.Question),
		Choices:     decodeList(w.Choices, splitLines),
		Explanation: decodeText(w.Explanation),
	}
	if i, err := strconv.Atoi(decodeText(w.AnswerIndex)); err == nil {
		q.AnswerIndex = i
	}
	return q
}

// normalizeEnum lowercases a model-supplied enum value and joins words with
// underscores, so "Flat Illustration" reads as flat_illustration.
func normalizeEnum(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(s, "-", " "))), "_")
}

var sentenceEnd = regexp.MustCompile(`[.!?]+(\s+|$)`)

func splitSentences(s string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(s, -1) {
		if sentence := strings.TrimSpace(s[last:loc[1]]); sentence != "" {
			out = append(out, sentence)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(s[last:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

func splitLabels(s string) []string {
	if strings.EqualFold(s, "none") {
		return nil
	}
	return splitOn(s, func(r rune) bool { return r == '|' || r == ',' })
}

func splitLines(s string) []string {
	return splitOn(s, func(r rune) bool { return r == '\n' })
}

func splitOn(s string, sep func(rune) bool) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
