package guardrail

import (
	"regexp"
	"strings"
)

// posterVocabulary signals that the user wants text rendered into images.
var posterVocabulary = []string{
	"poster", "quote", "ad", "advertisement", "flyer", "banner",
	"thumbnail", "cover", "title card", "logo", "branding",
}

var posterPattern = buildPosterPattern()

func buildPosterPattern() *regexp.Regexp {
	alts := make([]string, len(posterVocabulary))
	for i, kw := range posterVocabulary {
		alts[i] = strings.ReplaceAll(regexp.QuoteMeta(kw), " ", `\s+`)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)s?\b`)
}

// WantsTextInImage reports whether the title or text asks for poster, ad, or
// quote style output. Keywords match as whole words, optionally plural.
func WantsTextInImage(text, title string) bool {
	return posterPattern.MatchString(strings.ToLower(title + " " + text))
}
