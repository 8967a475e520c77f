package guardrail

import (
	"strings"

	"github.com/phrazzld/loopmind-api/internal/domain"
)

// ImagePromptGuardrail normalizes image labels and the structured prompt of
// every image card.
type ImagePromptGuardrail struct{}

// Apply rewrites image cards in place and returns cards. When allowText is
// false all labels are removed. A prompt missing any required label is
// rebuilt canonically; otherwise it is reordered, its text line is set from
// the labels, and the visual-balance clause is appended when absent.
func (ImagePromptGuardrail) Apply(cards []*domain.Card, allowText bool) []*domain.Card {
	for _, c := range cards {
		if !c.IsImage() {
			continue
		}

		var labels []string
		if allowText {
			labels = NormalizeLabels(c.ImageLabels)
		}
		c.ImageLabels = labels

		if !c.ImagePrompt.Complete() {
			c.ImagePrompt = CanonicalPrompt(c.Title, c.ImageStyle, labels)
			continue
		}

		p := c.ImagePrompt.Canonical().With(domain.LabelTextInImage, TextInImage(labels))
		if !strings.Contains(p.String(), visualBalanceMarker) {
			quality, _ := p.Get(domain.LabelQualityModifiers)
			p = p.With(domain.LabelQualityModifiers, appendClause(quality, VisualBalanceRules))
		}
		c.ImagePrompt = p
	}
	return cards
}

func appendClause(value, clause string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return clause
	}
	if !strings.HasSuffix(value, ",") && !strings.HasSuffix(value, ".") {
		value += ","
	}
	return value + " " + clause
}
