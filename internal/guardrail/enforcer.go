package guardrail

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/phrazzld/loopmind-api/internal/config"
	"github.com/phrazzld/loopmind-api/internal/domain"
)

const (
	maxAnswerRunes      = 200
	fallbackAnswer      = "See explanation."
	fallbackExplanation = "Choose the best answer based on the concept."
)

var placeholderChoices = [domain.QuizChoiceCount]string{"Option A", "Option B", "Option C", "Option D"}

// ConstraintEnforcer restores the type-mix and field-nulling invariants the
// model may have violated. It never calls the model and never fails.
type ConstraintEnforcer struct {
	maxImages int
}

// NewConstraintEnforcer creates an enforcer bound to the image ceiling of cfg.
func NewConstraintEnforcer(cfg config.GenerationConfig) ConstraintEnforcer {
	return ConstraintEnforcer{maxImages: cfg.MaxImages}
}

// Enforce repairs cards in place and returns them. The repairs run once, in
// order: treat unknown post types as flashcards, cap images, ensure a quiz, ensure an image, ensure a flashcard, then
// sweep every card. Running Enforce on its own output changes nothing.
func (e ConstraintEnforcer) Enforce(cards []*domain.Card) []*domain.Card {
	if len(cards) == 0 {
		return cards
	}

	for _, c := range cards {
		if !c.PostType.Valid() {
			c.PostType = domain.PostTypeFlashcard
		}
	}

	images := 0
	for _, c := range cards {
		if c.PostType != domain.PostTypeImage {
			continue
		}
		images++
		if images > e.maxImages {
			toFlashcard(c)
		}
	}

	if !hasType(cards, domain.PostTypeQuiz) {
		if i := pickDonor(cards, len(cards)-1, false); i >= 0 {
			toQuiz(cards[i])
		}
	}

	if !hasType(cards, domain.PostTypeImage) {
		if i := pickDonor(cards, firstOfType(cards, domain.PostTypeFlashcard), true); i >= 0 {
			toImage(cards[i])
		}
	}

	if !hasType(cards, domain.PostTypeFlashcard) {
		if i := pickDonor(cards, firstOfType(cards, domain.PostTypeImage), true); i >= 0 {
			toFlashcard(cards[i])
		}
	}

	for _, c := range cards {
		sweep(c)
	}
	return cards
}

// pickDonor returns preferred unless converting it would remove the last card
// of its type. In that case the first card, scanning in the given direction,
// whose type has at least two members is returned instead. preferred is used
// as a last resort; -1 means there is nothing to convert.
func pickDonor(cards []*domain.Card, preferred int, forward bool) int {
	counts := make(map[domain.PostType]int, len(domain.PostTypes))
	for _, c := range cards {
		counts[c.PostType]++
	}

	if preferred >= 0 && counts[cards[preferred].PostType] >= 2 {
		return preferred
	}

	for n := range cards {
		i := n
		if !forward {
			i = len(cards) - 1 - n
		}
		if counts[cards[i].PostType] >= 2 {
			return i
		}
	}
	return preferred
}

func hasType(cards []*domain.Card, t domain.PostType) bool {
	return firstOfType(cards, t) >= 0
}

func firstOfType(cards []*domain.Card, t domain.PostType) int {
	for i, c := range cards {
		if c.PostType == t {
			return i
		}
	}
	return -1
}

func toFlashcard(c *domain.Card) {
	c.PostType = domain.PostTypeFlashcard
	c.Flashcard = synthesizeFlashcard(c)
	clearImage(c)
	c.Quiz = nil
}

func toQuiz(c *domain.Card) {
	c.PostType = domain.PostTypeQuiz
	c.Quiz = synthesizeQuiz(c)
	clearImage(c)
	c.Flashcard = nil
}

func toImage(c *domain.Card) {
	c.PostType = domain.PostTypeImage
	c.ImageStyle = domain.ImageStyleCinematic
	c.ImageLabels = nil
	c.ImagePrompt = CanonicalPrompt(c.Title, c.ImageStyle, nil)
	c.Flashcard = nil
	c.Quiz = nil
}

func clearImage(c *domain.Card) {
	c.ImagePrompt = nil
	c.ImageStyle = ""
	c.ImageLabels = nil
}

func synthesizeFlashcard(c *domain.Card) *domain.Flashcard {
	answer := fallbackAnswer
	if len(c.MicroExplanation) > 0 && strings.TrimSpace(c.MicroExplanation[0]) != "" {
		answer = truncateRunes(strings.TrimSpace(c.MicroExplanation[0]), maxAnswerRunes)
	}
	return &domain.Flashcard{
		Question: fmt.Sprintf("What is %s?", titleOr(c, "Key concept")),
		Answer:   answer,
	}
}

func synthesizeQuiz(c *domain.Card) *domain.Quiz {
	return &domain.Quiz{
		Question:    quizQuestion(c),
		Choices:     append([]string(nil), placeholderChoices[:]...),
		AnswerIndex: 0,
		Explanation: fallbackExplanation,
	}
}

func quizQuestion(c *domain.Card) string {
	if q := strings.TrimSpace(c.MasteryQuestion); q != "" {
		return q
	}
	return fmt.Sprintf("What is important about %s?", titleOr(c, "this concept"))
}

func titleOr(c *domain.Card, fallback string) string {
	if t := strings.TrimSpace(c.Title); t != "" {
		return t
	}
	return fallback
}

// sweep nulls every field foreign to the card's post type and fills missing
// required content with defaults.
func sweep(c *domain.Card) {
	if !c.PostType.Valid() {
		c.PostType = domain.PostTypeFlashcard
	}

	switch c.PostType {
	case domain.PostTypeImage:
		c.Flashcard = nil
		c.Quiz = nil
		if !c.ImageStyle.Valid() {
			c.ImageStyle = domain.ImageStyleCinematic
		}
		if c.ImagePrompt == nil {
			c.ImagePrompt = CanonicalPrompt(c.Title, c.ImageStyle, c.ImageLabels)
		}
	case domain.PostTypeFlashcard:
		clearImage(c)
		c.Quiz = nil
		if c.Flashcard == nil || strings.TrimSpace(c.Flashcard.Question) == "" {
			c.Flashcard = synthesizeFlashcard(c)
		}
	case domain.PostTypeQuiz:
		clearImage(c)
		c.Flashcard = nil
		if c.Quiz == nil {
			c.Quiz = synthesizeQuiz(c)
		}
		normalizeQuiz(c)
	}

	if c.MicroExplanation == nil {
		c.MicroExplanation = []string{}
	}
	if c.Takeaways == nil {
		c.Takeaways = []string{}
	}
	if c.VisualPayload == nil {
		c.VisualPayload = map[string]any{}
	}
	if !c.VisualType.Valid() {
		c.VisualType = domain.VisualTypeDiagram
	}
}

// normalizeQuiz pads or trims choices to exactly four and keeps the answer
// index in range.
func normalizeQuiz(c *domain.Card) {
	q := c.Quiz
	if strings.TrimSpace(q.Question) == "" {
		q.Question = quizQuestion(c)
	}

	choices := make([]string, 0, domain.QuizChoiceCount)
	for _, choice := range q.Choices {
		if len(choices) == domain.QuizChoiceCount {
			break
		}
		choices = append(choices, choice)
	}
	for len(choices) < domain.QuizChoiceCount {
		choices = append(choices, placeholderChoices[len(choices)])
	}
	q.Choices = choices

	if q.AnswerIndex < 0 || q.AnswerIndex >= domain.QuizChoiceCount {
		q.AnswerIndex = 0
	}
	if strings.TrimSpace(q.Explanation) == "" {
		q.Explanation = fallbackExplanation
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
