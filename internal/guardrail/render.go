package guardrail

import (
	"strings"

	"github.com/phrazzld/loopmind-api/internal/domain"
)

// HouseStylePrefix opens every prompt sent to the image model.
const HouseStylePrefix = "Generate a high-quality polished AI image suitable for a learning app. " +
	"Do NOT add watermarks. Do NOT add logos. " +
	"Square 1024x1024. Clean composition. "

var styleHints = map[domain.ImageStyle]string{
	domain.ImageStyleCartoon:          "high-quality cartoon illustration, expressive character, vibrant colors, clean outlines",
	domain.ImageStyleAnime:            "anime illustration, clean linework, cinematic lighting, detailed faces",
	domain.ImageStyle3D:               "high-quality 3D render, realistic materials, studio lighting, depth of field",
	domain.ImageStyleCinematic:        "cinematic digital art, photoreal lighting, shallow depth of field, film look",
	domain.ImageStyleFlatIllustration: "modern flat illustration, bold shapes, clean gradients, minimal clutter",
}

// StyleHint returns the rendering hint for style. Unknown styles fall back
// to cinematic.
func StyleHint(style domain.ImageStyle) string {
	if hint, ok := styleHints[style]; ok {
		return hint
	}
	return styleHints[domain.ImageStyleCinematic]
}

// RenderPrompt builds the text sent to the image model for card. Labels are
// normalized again here so a stored card can never widen the text budget.
func RenderPrompt(card *domain.Card) string {
	labels := NormalizeLabels(card.ImageLabels)

	var textRule string
	if len(labels) > 0 {
		textRule = "Text allowed ONLY using these exact labels: [" + strings.Join(labels, " | ") + "]. No other text. " +
			VisualBalanceRules
	} else {
		textRule = "No text in the image. " + VisualBalanceRules
	}

	var b strings.Builder
	b.WriteString(HouseStylePrefix)
	b.WriteString("Style: ")
	b.WriteString(StyleHint(card.ImageStyle))
	b.WriteString(". ")
	b.WriteString(textRule)
	b.WriteString("\n\n")
	b.WriteString(card.ImagePrompt.String())
	return b.String()
}
