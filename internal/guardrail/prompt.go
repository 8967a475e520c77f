package guardrail

import (
	"strings"

	"github.com/phrazzld/loopmind-api/internal/domain"
)

// VisualBalanceRules is the mandatory clause every image prompt's quality
// modifiers must carry.
const VisualBalanceRules = "Text must occupy less than 20% of the frame. " +
	"Use large readable typography. " +
	"Text must not dominate composition. " +
	"No cluttered background text."

// visualBalanceMarker detects whether the clause is already present.
const visualBalanceMarker = "Text must occupy less than 20% of the frame"

const (
	defaultSubject      = "A clear scene that teaches the concept"
	defaultContext      = "Real-world, visually clear setting"
	defaultLighting     = "Natural, well-balanced lighting"
	defaultCamera       = "Square, mobile-friendly composition, clear subject framing"
	defaultMood         = "Engaging and easy to understand"
	defaultColorPalette = "Clean, high-contrast but not oversaturated"
	qualityPrefix       = "High resolution, sharp focus, no watermark, no logo, "
)

// TextInImage renders labels as the value of the "Text in image:" line.
func TextInImage(labels []string) string {
	if len(labels) == 0 {
		return "None"
	}
	return strings.Join(labels, " | ")
}

// CanonicalPrompt builds a complete structured prompt from a card's title,
// style and finalized labels.
func CanonicalPrompt(title string, style domain.ImageStyle, labels []string) domain.ImagePrompt {
	subject := strings.TrimSpace(title)
	if subject == "" {
		subject = defaultSubject
	}
	styleValue := string(style)
	if styleValue == "" {
		styleValue = string(domain.ImageStyleCinematic)
	}

	return domain.ImagePrompt{
		{Label: domain.LabelSubject, Value: subject},
		{Label: domain.LabelContext, Value: defaultContext},
		{Label: domain.LabelStyle, Value: styleValue},
		{Label: domain.LabelLighting, Value: defaultLighting},
		{Label: domain.LabelCamera, Value: defaultCamera},
		{Label: domain.LabelMood, Value: defaultMood},
		{Label: domain.LabelColorPalette, Value: defaultColorPalette},
		{Label: domain.LabelTextInImage, Value: TextInImage(labels)},
		{Label: domain.LabelQualityModifiers, Value: qualityPrefix + VisualBalanceRules},
	}
}
